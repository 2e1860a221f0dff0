package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/upb/route-optimizer/internal/metrics"
	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/services/heuristic"
	"github.com/upb/route-optimizer/services/parser"
	"github.com/upb/route-optimizer/services/prompt"
	"github.com/upb/route-optimizer/services/providers"
	"github.com/upb/route-optimizer/services/validation"
)

// DefaultStatusTimeout bounds reachability checks when none is configured
const DefaultStatusTimeout = 3 * time.Second

// Settings is the immutable LLM policy resolved once at startup
type Settings struct {
	// Enabled turns the LLM path on
	Enabled bool

	// Kind is the configured deployment shape, reported by Status
	Kind models.ProviderKind

	// Configured is false when the selected backend lacks what it needs (e.g. a credential)
	Configured bool

	// CheckReachability pings the backend before each LLM attempt
	CheckReachability bool

	// StatusTimeout bounds every Ping
	StatusTimeout time.Duration

	// MaxCallsPerSecond caps model calls across requests; 0 means unlimited
	MaxCallsPerSecond float64
}

// Service chooses between the LLM path and the heuristic and always
// returns a complete assignment for valid input.
type Service struct {
	settings Settings
	provider providers.Provider
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates an optimizer. provider may be nil when no backend
// is selected; m may be nil when metrics are disabled.
func NewService(settings Settings, provider providers.Provider, m *metrics.Metrics, logger *zap.Logger) *Service {
	if settings.StatusTimeout <= 0 {
		settings.StatusTimeout = DefaultStatusTimeout
	}
	if provider == nil {
		settings.Kind = models.ProviderKindNone
		settings.Configured = false
	}

	var limiter *rate.Limiter
	if settings.MaxCallsPerSecond > 0 {
		burst := int(math.Ceil(settings.MaxCallsPerSecond))
		limiter = rate.NewLimiter(rate.Limit(settings.MaxCallsPerSecond), burst)
	}

	return &Service{
		settings: settings,
		provider: provider,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// Optimize validates the request and assigns deliveries to vehicles.
// The only error it returns is a validation error; every LLM path
// failure is absorbed by falling back to the heuristic.
func (s *Service) Optimize(ctx context.Context, req *models.OptimizationRequest) (*models.OptimizationResult, error) {
	if req == nil {
		return nil, services.NewValidationError("invalid optimization request", map[string]string{
			"body": "request body is required",
		})
	}

	input, err := validation.Validate(req.Deliveries, req.Fleet)
	if err != nil {
		return nil, err
	}

	optimizationID := uuid.NewString()
	logger := s.logger.With(zap.String("optimization_id", optimizationID))
	logger.Info("starting route optimization",
		zap.Int("deliveries", len(input.Deliveries)),
		zap.Int("vehicles", len(input.Fleet)))

	var fallback error
	if s.llmSelected() {
		if fallback = s.admit(ctx); fallback == nil {
			result, err := s.runLLM(ctx, logger, input)
			if err == nil {
				return s.finish(logger, optimizationID, result), nil
			}
			fallback = err
		}
	}

	result := heuristic.Assign(input.Deliveries, input.Fleet)
	if fallback != nil {
		reason := fallbackReason(fallback)
		result.FallbackReason = reason
		result.Message = fmt.Sprintf("LLM optimization unavailable (%s), used basic algorithm. %s", reason, result.Message)
		s.metrics.RecordFallback(reason)
		if services.IsLLMPathError(fallback) {
			logger.Warn("LLM path failed, falling back to basic algorithm",
				zap.String("fallback_reason", reason),
				zap.Error(fallback))
		} else {
			logger.Error("unexpected LLM path error, falling back to basic algorithm",
				zap.String("fallback_reason", reason),
				zap.Error(fallback))
		}
	}
	return s.finish(logger, optimizationID, result), nil
}

// Status reports the configured backend and checks it with a bounded Ping.
// It never fails; an unreachable backend is a reported value.
func (s *Service) Status(ctx context.Context) models.ProviderStatus {
	status := models.ProviderStatus{
		Provider:   s.settings.Kind,
		Configured: s.settings.Configured,
		Enabled:    s.settings.Enabled,
		Reachable:  models.ReachableUnknown,
	}
	if s.provider == nil {
		return status
	}
	status.Provider = s.provider.Kind()
	status.Backend = s.provider.Name()
	status.Model = s.provider.Model()

	if !s.settings.Enabled || !s.settings.Configured {
		return status
	}

	if err := s.ping(ctx); err != nil {
		status.Reachable = models.ReachableNo
		status.Error = err.Error()
		return status
	}
	status.Reachable = models.ReachableYes
	return status
}

func (s *Service) llmSelected() bool {
	return s.settings.Enabled && s.settings.Configured && s.provider != nil
}

// admit applies the call budget and the optional reachability check
func (s *Service) admit(ctx context.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return services.ErrRateLimited
	}
	if s.settings.CheckReachability {
		return s.ping(ctx)
	}
	return nil
}

func (s *Service) ping(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.StatusTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = services.NewDomainError(services.ErrorTypeInternal, fmt.Sprintf("ping panicked: %v", r), nil)
		}
	}()
	return s.provider.Ping(ctx)
}

// runLLM is Prompt Builder -> Provider -> Response Parser. Partial state
// never escapes: on error the caller discards everything.
func (s *Service) runLLM(ctx context.Context, logger *zap.Logger, input *validation.Input) (result models.OptimizationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.NewDomainError(services.ErrorTypeInternal, fmt.Sprintf("LLM path panicked: %v", r), nil)
		}
	}()

	p, err := prompt.Build(input.Deliveries, input.Fleet)
	if err != nil {
		return models.OptimizationResult{}, err
	}

	name := s.provider.Name()
	start := time.Now()
	raw, err := s.provider.Generate(ctx, p)
	latency := time.Since(start)
	logger.Debug("LLM call finished",
		zap.String("provider", name),
		zap.String("model", s.provider.Model()),
		zap.Int64("latency_ms", latency.Milliseconds()),
		zap.Error(err))
	if err != nil {
		s.metrics.ObserveLLMCall(name, fallbackReason(err), latency)
		return models.OptimizationResult{}, err
	}

	parsed, err := parser.Parse(raw, input.Deliveries, input.Fleet)
	if err != nil {
		s.metrics.ObserveLLMCall(name, fallbackReason(err), latency)
		return models.OptimizationResult{}, err
	}
	s.metrics.ObserveLLMCall(name, "success", latency)

	parsed.OptimizationMethod = models.LLMMethod(name)
	parsed.LLMUsed = true
	parsed.Message = fmt.Sprintf("%s using %s model %s", parsed.Message, name, s.provider.Model())
	return parsed, nil
}

func (s *Service) finish(logger *zap.Logger, optimizationID string, result models.OptimizationResult) *models.OptimizationResult {
	result.OptimizationID = optimizationID
	s.metrics.RecordOptimization(string(result.OptimizationMethod), len(result.UnassignedDeliveries))
	logger.Info("route optimization completed",
		zap.String("method", string(result.OptimizationMethod)),
		zap.Int("routes", len(result.OptimizedRoutes)),
		zap.Int("unassigned", len(result.UnassignedDeliveries)))
	return &result
}

// fallbackReason names the error category; unknown errors count as provider errors
func fallbackReason(err error) string {
	if t := services.GetErrorType(err); t != "" {
		return string(t)
	}
	return string(services.ErrorTypeProvider)
}
