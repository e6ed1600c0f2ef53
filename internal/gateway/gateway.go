package gateway

import (
	"context"
	"errors"
)

// 外部ゲートウェイが返す最終判定。
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePending Outcome = "PENDING"
	OutcomeFailed  Outcome = "FAILED"
)

// 外部呼び出しの失敗（タイムアウト含む）。注文状態は変更しない。
var ErrUnavailable = errors.New("gateway unavailable")

type CustomerDetails struct {
	Name  string
	Email string
	Phone string
}

// CreateSessionの結果。リダイレクト用にそのまま返す。
type Session struct {
	SessionRef      string
	GatewayOrderRef string
	RedirectURL     string
}

type Status struct {
	Outcome        Outcome
	TransactionRef string

	//ゲートウェイ側の生のステータス/理由。失敗時のfailure_reasonに入れる
	RawReason string
}

// Gateway はホスト型決済ゲートウェイとの契約。
// セッションを作り、リダイレクト後に結果を照会する。カード情報等は扱わない。
type Gateway interface {
	CreateSession(ctx context.Context, amount int64, customer CustomerDetails) (Session, error)
	GetStatus(ctx context.Context, gatewayOrderRef string) (Status, error)
}
