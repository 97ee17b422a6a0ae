package config

import "time"

type Config struct {
	Web       Web
	Cors      Cors
	DB        DB
	Auth      Auth
	Email     Email
	Stripe    Stripe
	Oauth     Oauth
	RateLimit RateLimit
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:shop"`
	DisableTLS bool   `conf:"default:true"`
}

type Auth struct {
	// SessionSecret signs session tokens. It is read once at startup
	// and must never be rotated while issued cookies are live.
	SessionSecret   string        `conf:"required,mask"`
	SessionLifetime time.Duration `conf:"default:8760h"`
}

type Email struct {
	APIKey       string        `conf:"mask"`
	FromName     string        `conf:"default:Marketloop Shop"`
	FromAddress  string        `conf:"default:noreply@marketloop.example"`
	RecoveryURL  string        `conf:"default:http://localhost:3000/reset"`
	TokenTimeout time.Duration `conf:"default:1h"`
}

type Stripe struct {
	APISecret     string        `conf:"mask"`
	Currency      string        `conf:"default:usd"`
	ChargeTimeout time.Duration `conf:"default:10s"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type RateLimit struct {
	Burst  int     `conf:"default:10"`
	Expiry int     `conf:"default:60"`
	RPS    float64 `conf:"default:1"`
}
