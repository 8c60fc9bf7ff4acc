package domain

import (
	"context"
	"time"
)

// KVStore — порт общего key-value хранилища. Значения — сериализованные JSON-документы.
type KVStore interface {
	// Get возвращает значение и признак наличия ключа.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List возвращает ключи с данным префиксом в лексикографическом порядке.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Locker — порт сериализации read-modify-write над набором резерваций.
type Locker interface {
	// Lock удерживает блокировку key до вызова возвращённой функции release.
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MessageSubscriber — порт подписчика на входящие сообщения резерваций.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}
