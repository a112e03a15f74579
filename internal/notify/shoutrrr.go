package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"slices"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"dhankavach/internal/config"
	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

// ErrNoURLs is returned when the alerter is built without destinations
var ErrNoURLs = errors.New("at least one notification URL is required")

// ShoutrrrAlerter tells family members that a payment is waiting for their
// approval. One sender fans out to every configured service URL.
type ShoutrrrAlerter struct {
	sender *router.ServiceRouter
	urls   []string
	logger *logger.Logger
}

// NewShoutrrrAlerter validates the URLs and builds the sender
func NewShoutrrrAlerter(cfg config.NotifyConfig, log *logger.Logger) (*ShoutrrrAlerter, error) {
	if len(cfg.URLs) == 0 {
		return nil, ErrNoURLs
	}
	urls := slices.Clone(cfg.URLs)

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification sender: %w", redact(err, urls))
	}
	if cfg.Timeout > 0 {
		sender.Timeout = cfg.Timeout
	}
	sender.SetLogger(stdlog.New(io.Discard, "", 0))

	return &ShoutrrrAlerter{
		sender: sender,
		urls:   urls,
		logger: log.WithComponent("notify"),
	}, nil
}

// Notify sends the approval request. It returns when every service has
// answered or ctx is done, whichever comes first.
func (a *ShoutrrrAlerter) Notify(ctx context.Context, req *models.FamilyApprovalRequest) error {
	title, body := Message(req)
	params := types.Params{}
	params.SetTitle(title)

	done := make(chan error, 1)
	go func() {
		done <- firstError(a.sender.Send(body, &params))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to notify family for approval %s: %w", req.ID, redact(err, a.urls))
		}
		a.logger.Debug().Str("approval_id", req.ID).Int("services", len(a.urls)).Msg("family notified")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to notify family for approval %s: %w", req.ID, ctx.Err())
	}
}

// Message renders the bilingual alert
func Message(req *models.FamilyApprovalRequest) (title, body string) {
	title = "DhanKavach: payment needs your approval"

	var b strings.Builder
	fmt.Fprintf(&b, "A payment (ref %s) was held with risk %d/10.\n", req.TransactionRef, req.RiskScore)
	if len(req.Reasons) > 0 {
		reasons := make([]string, len(req.Reasons))
		for i, r := range req.Reasons {
			reasons[i] = strings.ReplaceAll(r, "_", " ")
		}
		fmt.Fprintf(&b, "Reasons: %s.\n", strings.Join(reasons, "; "))
	}
	fmt.Fprintf(&b, "Approve or deny request %s in the app.\n", req.ID)
	fmt.Fprintf(&b, "एक भुगतान (संदर्भ %s) जोखिम %d/10 के कारण रोका गया है। कृपया ऐप में अनुरोध %s को स्वीकार या अस्वीकार करें।",
		req.TransactionRef, req.RiskScore, req.ID)
	return title, b.String()
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// redact keeps service tokens embedded in URLs out of logs and API errors
func redact(err error, urls []string) error {
	msg := err.Error()
	for _, u := range urls {
		if u != "" {
			msg = strings.ReplaceAll(msg, u, "[redacted-url]")
		}
	}
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
