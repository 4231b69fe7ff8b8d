package domain

type TenantCreatedEvent struct {
	TenantID string
	Actor    string
	Params   CreateTenantParams
}

type TenantUpdatedEvent struct {
	TenantID string
	Actor    string
	Params   UpdateTenantParams
}

type TenantDeletedEvent struct {
	TenantID string
	Actor    string
}
