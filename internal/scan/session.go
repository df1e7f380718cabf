package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/events"
	"github.com/spec-kit/equipment-checkout/internal/observability"
	"github.com/spec-kit/equipment-checkout/internal/service"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// Mode selects how ambiguous scans are interpreted.
type Mode string

const (
	ModeAuto Mode = "AUTO"
	ModeOut  Mode = "OUT"
	ModeIn   Mode = "IN"
)

// ValidMode reports whether the mode is known.
func ValidMode(mode Mode) bool {
	return mode == ModeAuto || mode == ModeOut || mode == ModeIn
}

// Phase is the dispatcher's position in a multi-scan flow.
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhasePendingBadge Phase = "PENDING_BADGE"
	PhasePendingAsset Phase = "PENDING_ASSET"
	PhaseProcessing   Phase = "PROCESSING"
	PhaseDisplaying   Phase = "DISPLAYING"
)

// ResultKind classifies a dispatch outcome for display.
type ResultKind string

const (
	KindSuccess  ResultKind = "success"
	KindError    ResultKind = "error"
	KindWarning  ResultKind = "warning"
	KindInfo     ResultKind = "info"
	KindCooldown ResultKind = "cooldown"
)

// Result is what one scan dispatch produced.
type Result struct {
	Kind     ResultKind              `json:"kind"`
	Code     string                  `json:"code"`
	Message  string                  `json:"message"`
	Checkout *service.CheckoutResult `json:"checkout,omitempty"`
	Return   *service.ReturnResult   `json:"return,omitempty"`
}

type pendingAsset struct {
	id       string
	category domain.AssetCategory
}

// Session is the multi-phase scan dispatcher. All mutable flow state (mode,
// phase, parked asset or badge, display) is owned by the session instance;
// one session serves one client input channel.
type Session struct {
	mu           sync.Mutex
	id           string
	mode         Mode
	phase        Phase
	pendingAsset *pendingAsset
	pendingBadge string
	processing   bool
	display      *Result
	displayGen   uint64

	classifier *service.Classifier
	lifecycle  *service.LifecycleService
	cooldowns  *CooldownGuard
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.ScanConfig

	after func(d time.Duration, f func()) // timer hook, overridable in tests
}

// SessionDependencies bundles collaborators for a scan session.
type SessionDependencies struct {
	Classifier *service.Classifier
	Lifecycle  *service.LifecycleService
	Cooldowns  *CooldownGuard
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.ScanConfig
}

// NewSession creates a session in AUTO mode, Idle phase.
func NewSession(deps SessionDependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cooldowns := deps.Cooldowns
	if cooldowns == nil {
		cooldowns = NewCooldownGuard()
	}
	return &Session{
		id:         uuid.NewString(),
		mode:       ModeAuto,
		phase:      PhaseIdle,
		classifier: deps.Classifier,
		lifecycle:  deps.Lifecycle,
		cooldowns:  cooldowns,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        deps.Config,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// WithTimer overrides timer scheduling, for tests.
func (s *Session) WithTimer(after func(d time.Duration, f func())) *Session {
	s.after = after
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Display returns the result currently on screen, if any.
func (s *Session) Display() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// SetMode switches the mode, unconditionally resetting all phase state.
// The mode toggle is a dedicated control distinct from the scan channel.
func (s *Session) SetMode(ctx context.Context, mode Mode) error {
	if !ValidMode(mode) {
		return apperrors.NewValidationError("unknown scan mode", map[string]any{"mode": mode})
	}
	s.mu.Lock()
	s.mode = mode
	s.resetLocked()
	s.mu.Unlock()

	s.emitState(ctx, "ready", "", fmt.Sprintf("mode set to %s", mode))
	return nil
}

// HandleScan dispatches one raw token. The clerk is the authenticated
// operator of this session, used for transaction attribution.
func (s *Session) HandleScan(ctx context.Context, token, clerk string) *Result {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return &Result{Kind: KindWarning, Code: "PROCESSING", Message: "previous scan still processing"}
	}
	// Newer input preempts lingering feedback: cancel the pending
	// auto-reset and treat this token as fresh Idle input.
	if s.phase == PhaseDisplaying {
		s.displayGen++
		s.display = nil
		s.phase = PhaseIdle
	}
	phase := s.phase
	parkedAsset := s.pendingAsset
	parkedBadge := s.pendingBadge
	mode := s.mode
	s.processing = true
	s.phase = PhaseProcessing
	s.mu.Unlock()

	s.emitState(ctx, "processing", "", "")

	category := s.classifier.Identify(ctx, token)
	var result *Result
	switch phase {
	case PhaseIdle:
		result = s.dispatchIdle(ctx, mode, token, category, clerk)
	case PhasePendingBadge:
		result = s.dispatchPendingBadge(ctx, parkedAsset, token, category, clerk)
	case PhasePendingAsset:
		result = s.dispatchPendingAsset(ctx, mode, parkedBadge, token, category, clerk)
	default:
		result = &Result{Kind: KindWarning, Code: "BUSY", Message: "scanner busy"}
	}

	s.finish(ctx, result)
	return result
}

// dispatchIdle handles a token arriving with no flow in progress.
func (s *Session) dispatchIdle(ctx context.Context, mode Mode, token string, category domain.ScanCategory, clerk string) *Result {
	if assetCategory, ok := category.AssetCategoryFor(); ok {
		return s.dispatchAsset(ctx, mode, assetCategory, token, clerk)
	}

	// Badge token. In IN mode returns are single-scan; a badge has no role.
	if mode == ModeIn {
		return &Result{Kind: KindInfo, Code: "BADGE_NOT_NEEDED", Message: "badge scan not needed for returns"}
	}
	s.mu.Lock()
	s.pendingBadge = token
	s.pendingAsset = nil
	s.mu.Unlock()
	return &Result{Kind: KindInfo, Code: "PENDING_ASSET", Message: "badge accepted, scan an asset"}
}

func (s *Session) dispatchAsset(ctx context.Context, mode Mode, category domain.AssetCategory, assetID, clerk string) *Result {
	asset, err := s.lifecycle.GetAsset(ctx, category, assetID)
	if err != nil {
		return resultFromError(err)
	}

	available := asset.Status == domain.AvailableStatusFor(category)
	checkedOut := asset.Status == domain.CheckedOutStatusFor(category)

	switch {
	case available && (mode == ModeAuto || mode == ModeOut):
		s.mu.Lock()
		s.pendingAsset = &pendingAsset{id: assetID, category: category}
		s.pendingBadge = ""
		s.mu.Unlock()
		return &Result{Kind: KindInfo, Code: "PENDING_BADGE", Message: fmt.Sprintf("%s ready, scan a badge", assetID)}
	case checkedOut && (mode == ModeAuto || mode == ModeIn):
		return s.autoReturn(ctx, category, assetID, clerk)
	default:
		return &Result{
			Kind:    KindError,
			Code:    "INVALID_STATE",
			Message: fmt.Sprintf("%s is %s; not valid for %s mode", assetID, asset.Status, mode),
		}
	}
}

// dispatchPendingBadge completes the asset-first checkout path.
func (s *Session) dispatchPendingBadge(ctx context.Context, parked *pendingAsset, token string, category domain.ScanCategory, clerk string) *Result {
	if parked == nil {
		return &Result{Kind: KindError, Code: "NO_PENDING_ASSET", Message: "no asset waiting for a badge"}
	}
	if category != domain.ScanBadge {
		return &Result{Kind: KindWarning, Code: "EXPECTED_BADGE", Message: "expected a badge scan"}
	}
	return s.checkout(ctx, parked.category, parked.id, token, clerk)
}

// dispatchPendingAsset completes the badge-first checkout path. The parked
// badge goes through the same checkout as the asset-first path, so scan
// order does not change the outcome.
func (s *Session) dispatchPendingAsset(ctx context.Context, mode Mode, parkedBadge, token string, category domain.ScanCategory, clerk string) *Result {
	if category == domain.ScanBadge {
		// A second badge replaces the parked one; newest input wins.
		s.mu.Lock()
		s.pendingBadge = token
		s.mu.Unlock()
		return &Result{Kind: KindInfo, Code: "PENDING_ASSET", Message: "badge replaced, scan an asset"}
	}
	assetCategory, _ := category.AssetCategoryFor()
	asset, err := s.lifecycle.GetAsset(ctx, assetCategory, token)
	if err != nil {
		return resultFromError(err)
	}
	if asset.Status != domain.AvailableStatusFor(assetCategory) {
		return &Result{
			Kind:    KindError,
			Code:    "INVALID_STATE",
			Message: fmt.Sprintf("%s is %s; not available for checkout", token, asset.Status),
		}
	}
	return s.checkout(ctx, assetCategory, token, parkedBadge, clerk)
}

func (s *Session) checkout(ctx context.Context, category domain.AssetCategory, assetID, badge, clerk string) *Result {
	checkout, err := s.lifecycle.Checkout(ctx, category, assetID, badge, clerk)
	if err != nil {
		return resultFromError(err)
	}
	s.cooldowns.Arm(assetID, s.cfg.Cooldown())
	s.emitCooldownTicks(assetID)

	message := fmt.Sprintf("%s checked out to %s", assetID, checkout.Technician.Name)
	if checkout.TechnicianWasNew {
		message += " (new technician)"
	}
	return &Result{Kind: KindSuccess, Code: "CHECKED_OUT", Message: message, Checkout: checkout}
}

// autoReturn returns a checked-out asset in good condition, unless the
// asset was handed off moments ago and is still cooling down.
func (s *Session) autoReturn(ctx context.Context, category domain.AssetCategory, assetID, clerk string) *Result {
	if s.cooldowns.Active(assetID) {
		remaining := int(s.cooldowns.Remaining(assetID).Round(time.Second).Seconds())
		return &Result{
			Kind:    KindCooldown,
			Code:    "COOLDOWN_ACTIVE",
			Message: fmt.Sprintf("%s was just checked out; wait %ds before returning", assetID, remaining),
		}
	}
	returned, err := s.lifecycle.Return(ctx, category, assetID, domain.ConditionGood, clerk, "")
	if err != nil {
		return resultFromError(err)
	}
	return &Result{
		Kind:    KindSuccess,
		Code:    "RETURNED",
		Message: fmt.Sprintf("%s returned", assetID),
		Return:  returned,
	}
}

// finish moves the session into Displaying and arms the auto-reset timer.
// The generation counter is the cancel token: a newer scan bumps it, so a
// stale timer firing later finds the generation changed and does nothing.
func (s *Session) finish(ctx context.Context, result *Result) {
	window := s.cfg.ErrorDisplay()
	if result.Kind == KindSuccess {
		window = s.cfg.SuccessDisplay()
	}

	s.mu.Lock()
	s.processing = false
	// Keep pending state only when the dispatch parked something.
	switch result.Code {
	case "PENDING_BADGE":
		s.phase = PhasePendingBadge
	case "PENDING_ASSET":
		s.phase = PhasePendingAsset
	default:
		s.pendingAsset = nil
		s.pendingBadge = ""
		s.phase = PhaseDisplaying
		s.display = result
		s.displayGen++
		gen := s.displayGen
		s.after(window, func() { s.expireDisplay(gen) })
	}
	phase := s.phase
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordScan(string(result.Kind))
	}
	s.logger.Info("scan dispatched",
		zap.String("session_id", s.id),
		zap.String("phase", string(phase)),
		zap.String("code", result.Code),
		zap.String("kind", string(result.Kind)))

	s.emitState(ctx, string(result.Kind), result.Code, result.Message)
}

func (s *Session) expireDisplay(gen uint64) {
	s.mu.Lock()
	if s.displayGen != gen || s.phase != PhaseDisplaying {
		s.mu.Unlock()
		return
	}
	s.display = nil
	s.phase = PhaseIdle
	s.mu.Unlock()
	s.emitState(context.Background(), "ready", "", "")
}

// emitCooldownTicks publishes one countdown tick per second while the
// asset's cooldown lasts, for UI countdown display.
func (s *Session) emitCooldownTicks(assetID string) {
	var tick func()
	tick = func() {
		remaining := s.cooldowns.Remaining(assetID)
		if remaining <= 0 {
			return
		}
		s.publish(context.Background(), events.Event{
			Type:     events.EventCooldownTick,
			EntityID: assetID,
			Payload: events.CooldownTickPayload{
				AssetID:   assetID,
				Remaining: int(remaining.Round(time.Second).Seconds()),
			},
		})
		s.after(time.Second, tick)
	}
	s.after(time.Second, tick)
}

func (s *Session) emitState(ctx context.Context, kind, code, message string) {
	s.mu.Lock()
	mode := s.mode
	phase := s.phase
	s.mu.Unlock()
	s.publish(ctx, events.Event{
		Type:     events.EventScanStateChanged,
		EntityID: s.id,
		Payload: events.ScanStateChangedPayload{
			SessionID: s.id,
			Mode:      string(mode),
			State:     string(phase),
			Kind:      kind,
			Message:   message,
		},
	})
}

func (s *Session) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// resetLocked clears all phase state. Caller holds the mutex.
func (s *Session) resetLocked() {
	s.phase = PhaseIdle
	s.pendingAsset = nil
	s.pendingBadge = ""
	s.display = nil
	s.displayGen++
	s.processing = false
}

func resultFromError(err error) *Result {
	domainErr := apperrors.ToDomainError(err)
	return &Result{Kind: KindError, Code: domainErr.Code, Message: domainErr.Message}
}
