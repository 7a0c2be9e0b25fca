package models

// All lists every model managed by the migrate command.
func All() []any {
	return []any{
		&TenantIntegration{},
		&MenuCategory{},
		&MenuItem{},
		&Modifier{},
		&ModifierOption{},
		&SyncRun{},
	}
}
