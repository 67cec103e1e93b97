package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/daily"
	"github.com/vbonduro/foodcoach/internal/domain"
	"github.com/vbonduro/foodcoach/internal/model"
	"github.com/vbonduro/foodcoach/internal/photostore"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . LogRepository,AnalysisCache

// LogRepository is the subset of the food log stores that FoodService requires.
type LogRepository interface {
	Insert(ctx context.Context, log domain.NewFoodLog) (*domain.FoodLogEntry, error)
	ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.FoodLogEntry, error)
}

// AnalysisCache stores encoded analysis results by image digest.
type AnalysisCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

const defaultModelTimeout = 60 * time.Second

type FoodService struct {
	logs         LogRepository
	invoker      model.Invoker
	logger       *slog.Logger
	archive      photostore.PhotoStore
	cache        AnalysisCache
	personas     []string
	rand         analysis.Rand
	now          func() time.Time
	loc          *time.Location
	modelTimeout time.Duration
}

type Option func(*FoodService)

// WithImageArchive stores every analysed upload in ps.
func WithImageArchive(ps photostore.PhotoStore) Option {
	return func(s *FoodService) { s.archive = ps }
}

func WithCache(c AnalysisCache) Option {
	return func(s *FoodService) { s.cache = c }
}

// WithPersonas replaces the default persona pool. An empty pool is ignored.
func WithPersonas(pool []string) Option {
	return func(s *FoodService) {
		if len(pool) > 0 {
			s.personas = pool
		}
	}
}

func WithRand(r analysis.Rand) Option {
	return func(s *FoodService) { s.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *FoodService) { s.now = now }
}

// WithLocation sets the zone whose calendar day bounds DailyLog.
func WithLocation(loc *time.Location) Option {
	return func(s *FoodService) { s.loc = loc }
}

func WithModelTimeout(d time.Duration) Option {
	return func(s *FoodService) {
		if d > 0 {
			s.modelTimeout = d
		}
	}
}

func NewFoodService(logs LogRepository, invoker model.Invoker, logger *slog.Logger, opts ...Option) *FoodService {
	s := &FoodService{
		logs:         logs,
		invoker:      invoker,
		logger:       logger,
		personas:     analysis.DefaultPersonas,
		rand:         analysis.DefaultRand(),
		now:          time.Now,
		loc:          time.Local,
		modelTimeout: defaultModelTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analysis is the outcome of analysing one image.
type Analysis struct {
	Result analysis.Result
	// Coach is the persona that voiced the advice. Empty for a fallback.
	Coach string
	// ImageKey is the archive key of the upload. It is empty for cached and
	// fallback results, and when archiving is off or failed.
	ImageKey string
	Cached   bool
}

// Analyze asks the model about image and resolves its reply.
func (s *FoodService) Analyze(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}
	s.logger.Info("analyze started", "mime_type", mimeType, "bytes", len(image))

	digest := imageDigest(image)
	if res, ok := s.cached(ctx, digest); ok {
		s.logger.Info("analyze complete", "cached", true, "kind", kindOf(res))
		return &Analysis{Result: res, Coach: coachOf(res), Cached: true}, nil
	}

	// The archived copy is kept only when the image resolves to food.
	key := s.archiveImage(ctx, image, mimeType)
	keep := false
	defer func() {
		if !keep {
			s.discardImage(ctx, key)
		}
	}()

	prompt, err := analysis.BuildPrompt(s.personas, s.rand)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	s.logger.Info("model call started", "backend", s.invoker.Name(), "persona", prompt.Persona)
	start := time.Now()
	raw, err := s.invoker.Invoke(callCtx, image, mimeType, prompt)
	if err != nil {
		if !errors.Is(err, ErrModelUnavailable) {
			err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, fmt.Errorf("failed to invoke %s: %w", s.invoker.Name(), err)
	}
	s.logger.Info("model call complete", "backend", s.invoker.Name(), "duration", time.Since(start))

	res, err := analysis.Resolve(raw, prompt.Persona)
	if err != nil {
		s.logger.Warn("unusable model output", "error", err, "raw", truncate(raw, 512))
		return nil, fmt.Errorf("failed to resolve model output: %w", err)
	}

	s.store(ctx, digest, res)

	out := &Analysis{Result: res, Coach: coachOf(res)}
	if _, ok := res.(analysis.FoodResult); ok {
		out.ImageKey, keep = key, true
	}
	s.logger.Info("analyze complete", "cached", false, "kind", kindOf(res))
	return out, nil
}

// SaveInput is the client's round-tripped nutrition data. Nil means absent.
type SaveInput struct {
	Calories *float64
	Carbs    *float64
	Sugar    *float64
	UserID   string
	FoodName string
}

// Save validates in and appends a food log entry stamped with the current time.
// Zero, NaN and infinite values count as missing for the nutrition fields.
func (s *FoodService) Save(ctx context.Context, in SaveInput) (*domain.FoodLogEntry, error) {
	values := []*float64{in.Calories, in.Carbs, in.Sugar}
	for _, v := range values {
		if v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, ErrMissingRequiredField
		}
	}
	for _, v := range values {
		if *v < 0 {
			return nil, ErrNegativeValue
		}
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrMissingUserID
	}

	entry, err := s.logs.Insert(ctx, domain.NewFoodLog{
		Calories:  *in.Calories,
		Carbs:     *in.Carbs,
		Sugar:     *in.Sugar,
		UserID:    userID,
		FoodName:  strings.TrimSpace(in.FoodName),
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	s.logger.Info("food log saved", "id", entry.ID, "user_id", userID)
	return entry, nil
}

// DailyLog is one user's entries for the current calendar day and their totals.
type DailyLog struct {
	Entries []*domain.FoodLogEntry
	Totals  domain.DailyTotals
}

func (s *FoodService) DailyLog(ctx context.Context, userID string) (*DailyLog, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}

	start, end := daily.Window(s.now(), s.loc)
	entries, err := s.logs.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if entries == nil {
		entries = []*domain.FoodLogEntry{}
	}

	return &DailyLog{Entries: entries, Totals: daily.Reduce(entries)}, nil
}

// archiveImage stores image when an archive is configured. Failures are
// logged and yield an empty key.
func (s *FoodService) archiveImage(ctx context.Context, image []byte, mimeType string) string {
	if s.archive == nil {
		return ""
	}
	key, err := s.archive.Save(ctx, mimeType, bytes.NewReader(image))
	if err != nil {
		s.logger.Error("failed to archive image", "error", err)
		return ""
	}
	s.logger.Debug("image archived", "storage_key", key)
	return key
}

// discardImage removes an archived image that will not be returned to the
// client. It runs even when ctx is already cancelled.
func (s *FoodService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.archive.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("failed to discard archived image", "storage_key", key, "error", err)
		return
	}
	s.logger.Debug("archived image discarded", "storage_key", key)
}

// cachedResult is the cache encoding of an analysis.Result.
type cachedResult struct {
	Fallback *analysis.FallbackResult `json:"fallback,omitempty"`
	Food     *analysis.FoodResult     `json:"food,omitempty"`
}

func (s *FoodService) cached(ctx context.Context, digest string) (analysis.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, digest)
	if err != nil {
		s.logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var c cachedResult
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "error", err)
		return nil, false
	}
	switch {
	case c.Fallback != nil:
		return *c.Fallback, true
	case c.Food != nil:
		return *c.Food, true
	}
	return nil, false
}

func (s *FoodService) store(ctx context.Context, digest string, res analysis.Result) {
	if s.cache == nil {
		return
	}
	var c cachedResult
	switch r := res.(type) {
	case analysis.FallbackResult:
		c.Fallback = &r
	case analysis.FoodResult:
		c.Food = &r
	}
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Warn("failed to encode cache entry", "error", err)
		return
	}
	if err := s.cache.Set(ctx, digest, data); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
}

func imageDigest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

func coachOf(res analysis.Result) string {
	if food, ok := res.(analysis.FoodResult); ok {
		return food.Persona
	}
	return ""
}

func kindOf(res analysis.Result) string {
	if _, ok := res.(analysis.FallbackResult); ok {
		return "fallback"
	}
	return "food"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
