package models

type AdminStats struct {
	Users        int64 `json:"users"`
	Images       int64 `json:"images"`
	RevenueCents int64 `json:"revenue_cents"`
	TokensIssued int64 `json:"tokens_issued"`
	TokensSpent  int64 `json:"tokens_spent"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type AdjustTokensRequest struct {
	Amount      int    `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type SwitchProviderRequest struct {
	Provider string `json:"provider" validate:"required"`
}
