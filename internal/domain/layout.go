package domain

// Layout — схема ключей хранилища: каноническое место, исторические места и префиксы очистки.
type Layout struct {
	CanonicalKey   string   `yaml:"canonical_key"`
	MetaKey        string   `yaml:"meta_key"`
	LegacyKeys     []string `yaml:"legacy_keys"`
	LegacyPrefixes []string `yaml:"legacy_prefixes"`
	WipePrefixes   []string `yaml:"wipe_prefixes"`
}

// DefaultLayout — раскладка ключей, накопленная за все версии фронтенда.
func DefaultLayout() Layout {
	return Layout{
		CanonicalKey: "DELIVERY_RESERVATIONS_V1",
		MetaKey:      "DELIVERY_RESERVATIONS_V1__MIGRATION",
		LegacyKeys: []string{
			"DELIVERY_RESERVATIONS_V1",
			"kv:DELIVERY_RESERVATIONS_V1",
			"DELIVERY_RESERVATIONS",
			"kv:DELIVERY_RESERVATIONS",
			"reservations",
			"kv:reservations",
		},
		LegacyPrefixes: []string{"res:"},
		WipePrefixes: []string{
			"DELIVERY_RESERVATIONS",
			"reservations",
			"kv:",
			"res:",
			"wb:",
			"store:",
			"courier:",
		},
	}
}

// WithDefaults заполняет пустые поля значениями DefaultLayout.
func (l Layout) WithDefaults() Layout {
	def := DefaultLayout()
	if l.CanonicalKey == "" {
		l.CanonicalKey = def.CanonicalKey
	}
	if l.MetaKey == "" {
		l.MetaKey = l.CanonicalKey + "__MIGRATION"
	}
	if l.LegacyKeys == nil {
		l.LegacyKeys = def.LegacyKeys
	}
	if l.LegacyPrefixes == nil {
		l.LegacyPrefixes = def.LegacyPrefixes
	}
	if l.WipePrefixes == nil {
		l.WipePrefixes = def.WipePrefixes
	}
	return l
}
