package web

import (
	"time"

	"github.com/etendosoftware/workspace-gateway/internal/attachment"
	"github.com/etendosoftware/workspace-gateway/internal/debuglog"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
	"github.com/etendosoftware/workspace-gateway/internal/process"
	"github.com/etendosoftware/workspace-gateway/internal/session"
	"github.com/etendosoftware/workspace-gateway/internal/transport/web/v1/health"
)

// Deps is everything the handlers need. Optional backends are nil when not
// configured.
type Deps struct {
	BaseURL     string
	ERP         *erp.Client
	Meta        *metadata.Client
	Sessions    *session.Store
	Selections  *session.Selections
	Processes   *process.Registry
	Attachments *attachment.Service
	Recent      domain.RecentRepo

	Cache       domain.Cache
	ERPCacheTTL time.Duration

	Auth AuthDeps

	DebugLog          *debuglog.Log
	DebugPasswordHash string

	DB      health.Pinger
	Storage health.Pinger
}

type AuthDeps struct {
	Tokens    domain.TokenParser
	Blacklist domain.TokenBlacklist
	Verifier  domain.PasswordVerifier
}
