package token

// Mailer delivers the recovery mail. Delivery is fire-and-forget: a
// failed send never rolls back the token that was already stored.
type Mailer interface {
	SendRecovery(to string, token string) error
}

type RecoveryNew struct {
	Email string `json:"email" validate:"required,email"`
}

type RecoveryUp struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}
