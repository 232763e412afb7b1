package domain

// Roles reconocidos en el token.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleSystem   = "system"
)

// TenantContext alcance explícito de cada operación del núcleo.
// Se construye en la frontera (middleware JWT o worker) y viaja como parámetro.
type TenantContext struct {
	TenantID string
	UserID   string
	Role     string
}

// Validate rechaza contextos sin tenant.
func (t TenantContext) Validate() error {
	if t.TenantID == "" {
		return ErrUnauthorized
	}
	return nil
}

// SystemContext contexto usado por procesos internos (reconciliador, CLI).
func SystemContext(tenantID string) TenantContext {
	return TenantContext{TenantID: tenantID, UserID: "system", Role: RoleSystem}
}
