package models

// All lists every persisted model, in dependency order, for gorm AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&CartLine{},
		&WishlistLine{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
