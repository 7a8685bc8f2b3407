package enum

// ── Ledger tags (CHECK constrained in DB) ──

// Payment types carried by distribution records.
const (
	PaymentTypeCash     = "CASH"
	PaymentTypeCashless = "CASHLESS"
)

// Conditions carried by plan records. FAKULTATIF marks a discretionary,
// outside-the-normal-schedule plan day.
const (
	ConditionNormal     = "NORMAL"
	ConditionFakultatif = "FAKULTATIF"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin    = "ADMIN"
	UserRoleOperator = "OPERATOR"
	UserRoleViewer   = "VIEWER"
)
