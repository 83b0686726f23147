package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/audit"
	"github.com/ledgerflow/ledgerflow/internal/memory"
	"github.com/ledgerflow/ledgerflow/internal/models"
)

// Confidence thresholds for reconciling the engine judge with the keyword
// judge. Below the floor the engine is ignored; at or above the ceiling it is
// trusted outright.
const (
	engineFloor   = 0.4
	engineCeiling = 0.8
)

// Classifier routes a user sentence to the handler for its intent. Two
// judges run per sentence: the engine (probabilistic) and the keyword tables
// (deterministic); classification never fails, every path degrades to a
// usable intent.
type Classifier struct {
	engine    Engine
	runner    *QueryRunner
	mutations *MutationHandler
	deletes   *DeleteWorkflow
	cache     *ClassCache
	auditLog  *audit.Logger
	context   *memory.Context
}

// NewClassifier wires the full pipeline. cache, auditLog, and context may be
// nil.
func NewClassifier(engine Engine, store Store, cache *ClassCache, auditLog *audit.Logger, contextMem *memory.Context) *Classifier {
	return &Classifier{
		engine:    engine,
		runner:    NewQueryRunner(engine, store, contextMem),
		mutations: NewMutationHandler(engine, store),
		deletes:   NewDeleteWorkflow(engine, store),
		cache:     cache,
		auditLog:  auditLog,
		context:   contextMem,
	}
}

// Deletes exposes the confirmation workflow for the confirm/cancel/pending
// surfaces.
func (c *Classifier) Deletes() *DeleteWorkflow {
	return c.deletes
}

// Classify determines the intent of sentence and dispatches it to the
// matching handler. The returned envelope always carries a result.
func (c *Classifier) Classify(ctx context.Context, sentence string, userID int64, sessionID string) *models.Envelope {
	cls := c.classify(ctx, sentence)

	env := c.dispatch(ctx, cls, sentence, userID, sessionID)

	if c.auditLog != nil && env.Result != nil {
		response := env.Result.Answer
		if response == "" {
			response = env.Result.Message
		}
		c.auditLog.Log(ctx, userID, sessionID, sentence, response)
	}
	return env
}

// Respond is the single-string convenience over Classify.
func (c *Classifier) Respond(ctx context.Context, sentence string, userID int64, sessionID string) string {
	env := c.Classify(ctx, sentence, userID, sessionID)
	if env.Result == nil {
		return "I could not process that request."
	}
	if env.Result.Answer != "" {
		return env.Result.Answer
	}
	return env.Result.Message
}

func (c *Classifier) classify(ctx context.Context, sentence string) models.Classification {
	// Spend/income statements bypass both the cache and the engine; the
	// engine misreads them often enough that asking is a liability.
	if isSpendingOrIncome(sentence) {
		return models.Classification{
			Intent:     models.IntentCreate,
			Confidence: 0.9,
			Source:     models.SourceKeyword,
			Rationale:  "spending or income statement",
		}
	}

	if c.cache != nil {
		if cls, ok := c.cache.Get(ctx, sentence); ok {
			return cls
		}
	}

	engineCls := c.engineClassify(ctx, sentence)
	keywordIntent := keywordClassify(sentence)
	cls := resolve(engineCls, keywordIntent, sentence)

	if c.cache != nil {
		c.cache.Put(ctx, sentence, cls)
	}
	return cls
}

// engineClassify asks the engine for a JSON intent judgment. Any failure,
// from transport to malformed JSON to an invalid intent, degrades to a
// low-confidence VIEW so the keyword judge decides.
func (c *Classifier) engineClassify(ctx context.Context, sentence string) models.Classification {
	fallback := models.Classification{
		Intent:     models.IntentView,
		Confidence: 0.3,
		Source:     models.SourceKeyword,
		Rationale:  "engine classification unavailable",
	}

	prompt := fmt.Sprintf(`Classify the intent of this personal-finance request.

INTENTS:
- VIEW: asking about existing data (questions, reports, totals)
- CREATE: recording a new transaction, budget, or category
- UPDATE: changing an existing record
- DELETE: removing existing records

Respond with ONLY a JSON object, no other text:
{"intent": "VIEW|CREATE|UPDATE|DELETE", "confidence": 0.0-1.0, "reason": "brief explanation"}

REQUEST: "%s"

JSON:`, sentence)

	result, err := c.engine.GenerateSync(ctx, prompt)
	if err != nil {
		log.Printf("agent: engine classification failed: %v", err)
		return fallback
	}

	parsed, err := parseClassification(result.Response)
	if err != nil {
		log.Printf("agent: unparseable classification %q: %v", result.Response, err)
		return fallback
	}
	return parsed
}

// parseClassification extracts and validates the JSON judgment from a raw
// engine response. Decoding is strict on shape but tolerant of confidence
// arriving as a number or a string.
func parseClassification(raw string) (models.Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return models.Classification{}, fmt.Errorf("no JSON object in response")
	}

	var body struct {
		Intent     string `json:"intent"`
		Confidence any    `json:"confidence"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &body); err != nil {
		return models.Classification{}, fmt.Errorf("decode judgment: %w", err)
	}

	intent := models.Intent(strings.ToUpper(strings.TrimSpace(body.Intent)))
	if !intent.Valid() {
		return models.Classification{}, fmt.Errorf("invalid intent %q", body.Intent)
	}

	confidence := coerceConfidence(body.Confidence)

	return models.Classification{
		Intent:     intent,
		Confidence: confidence,
		Source:     models.SourceEngine,
		Rationale:  body.Reason,
	}, nil
}

func coerceConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0.5
		}
		f = parsed
	default:
		return 0.5
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// resolve reconciles the two judges. The keyword judge wins below the engine
// confidence floor; the engine wins at the ceiling. In between, agreement
// keeps the engine's answer and disagreement falls to the keyword judge. The
// VIEW-vs-CREATE conflict is re-checked against the sentence itself, not the
// keyword label: a numeric amount in the original text means the user is
// stating a transaction, not asking about one.
func resolve(engineCls models.Classification, keywordIntent models.Intent, sentence string) models.Classification {
	if engineCls.Source != models.SourceEngine || engineCls.Confidence < engineFloor {
		return models.Classification{
			Intent:     keywordIntent,
			Confidence: 0.6,
			Source:     models.SourceKeyword,
			Rationale:  "keyword judge preferred over low-confidence engine",
		}
	}
	if engineCls.Confidence >= engineCeiling || engineCls.Intent == keywordIntent {
		return engineCls
	}

	if engineCls.Intent == models.IntentView && keywordIntent == models.IntentCreate &&
		numericRe.MatchString(strings.ToLower(sentence)) {
		return models.Classification{
			Intent:     models.IntentCreate,
			Confidence: 0.7,
			Source:     models.SourceResolved,
			Rationale:  "numeric amount in sentence favors recording a transaction",
		}
	}

	return models.Classification{
		Intent:     keywordIntent,
		Confidence: 0.6,
		Source:     models.SourceResolved,
		Rationale:  "keyword judge preferred on mid-confidence disagreement",
	}
}

// dispatch hands the sentence to the handler for the resolved intent. An
// UNKNOWN intent is retried once as a VIEW before giving up.
func (c *Classifier) dispatch(ctx context.Context, cls models.Classification, sentence string, userID int64, sessionID string) *models.Envelope {
	env := &models.Envelope{
		Intent:        cls.Intent,
		Confidence:    cls.Confidence,
		OriginalQuery: sentence,
	}

	switch cls.Intent {
	case models.IntentView:
		env.Handler = "query_runner"
		env.Result = c.runner.Run(ctx, sentence, userID)
	case models.IntentCreate:
		env.Handler = "mutation_create"
		env.Result = c.mutations.Create(ctx, prepareCreate(sentence), userID)
	case models.IntentUpdate:
		env.Handler = "mutation_update"
		env.Result = c.mutations.Update(ctx, sentence, userID)
	case models.IntentDelete:
		env.Handler = "delete_workflow"
		env.Result = c.deletes.Request(ctx, sentence, userID, sessionID)
	default:
		env.Handler = "query_runner"
		env.Result = c.runner.Run(ctx, sentence, userID)
		if env.Result.Status == models.StatusError {
			env.Intent = models.IntentUnknown
			env.Result = &models.HandlerResult{
				Status:  models.StatusError,
				Message: "I could not determine what you want to do. Try rephrasing your request.",
			}
		}
	}
	return env
}
