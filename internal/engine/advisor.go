package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/config"
	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/pkg/anthropic"
)

const assessSystemPrompt = `You are a municipal disaster risk analyst. Given weather telemetry and community hazard reports, respond with a single valid JSON object and nothing else:
{"overall_risk": "Low|Moderate|High|Critical", "suspension_recommended": <bool>, "weather_score": <0-100>, "reports_score": <0-100>, "combined_score": <0-100>, "affected_cities": [<string>], "risk_factors": [<string>], "advisory": <string>, "priority_actions": [<string>], "expected_conditions": <string>}`

const classifySystemPrompt = `You are a municipal disaster report triager. Given community hazard reports, respond with a single valid JSON object and nothing else:
{"priority": "Low|Moderate|Critical", "critical_count": <int>, "medium_count": <int>, "low_count": <int>, "suspension_advised": <bool>, "threats": [<string>], "summary": <string>}`

// Advisor selects between the AI scorer and the deterministic fallback at a
// single decision point: a validated AI reply wins, anything else degrades.
// External-service failure is never fatal to producing a recommendation.
type Advisor struct {
	ai       anthropic.Client // nil disables the AI path
	aiCfg    config.AnthropicConfig
	cfg      config.EngineConfig
	fallback *FallbackScorer
}

// NewAdvisor creates an Advisor. Pass a nil client (or an empty API key
// upstream) to run fallback-only.
func NewAdvisor(ai anthropic.Client, aiCfg config.AnthropicConfig, cfg config.EngineConfig) *Advisor {
	return &Advisor{
		ai:       ai,
		aiCfg:    aiCfg,
		cfg:      Normalized(cfg),
		fallback: NewFallbackScorer(cfg),
	}
}

// Fallback exposes the deterministic scorer for callers that want it directly.
func (a *Advisor) Fallback() *FallbackScorer { return a.fallback }

// AssessRisk produces a risk assessment from telemetry and reports. One AI
// attempt, no retry; every failure path converges on the fallback scorer.
func (a *Advisor) AssessRisk(ctx context.Context, snapshots []model.WeatherSnapshot, reports []model.Report) model.RiskAssessment {
	if a.ai == nil {
		return a.fallback.AssessRisk(snapshots, reports)
	}

	prompt := buildAssessPrompt(snapshots, boundReports(reports, a.cfg.MaxPromptReports))
	text, err := a.complete(ctx, assessSystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("engine: ai assessment failed, using fallback", zap.Error(err))
		return a.fallback.AssessRisk(snapshots, reports)
	}

	assessment, err := parseAssessment(text, a.cfg.MaxRiskFactors)
	if err != nil {
		zap.L().Warn("engine: ai assessment unusable, using fallback", zap.Error(err))
		return a.fallback.AssessRisk(snapshots, reports)
	}

	assessment.GeneratedAt = a.fallback.now().UTC()
	zap.L().Info("engine: ai risk assessment",
		zap.Int("combined_score", assessment.CombinedScore),
		zap.String("tier", string(assessment.OverallRisk)),
	)
	return assessment
}

// ClassifyReports classifies a report batch, degrading to the deterministic
// classifier independently of AssessRisk.
func (a *Advisor) ClassifyReports(ctx context.Context, reports []model.Report) model.ReportClassification {
	if a.ai == nil {
		return a.fallback.ClassifyReports(reports)
	}

	prompt := buildClassifyPrompt(boundReports(reports, a.cfg.MaxPromptReports))
	text, err := a.complete(ctx, classifySystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("engine: ai classification failed, using fallback", zap.Error(err))
		return a.fallback.ClassifyReports(reports)
	}

	classification, err := parseClassification(text, reports)
	if err != nil {
		zap.L().Warn("engine: ai classification unusable, using fallback", zap.Error(err))
		return a.fallback.ClassifyReports(reports)
	}

	classification.GeneratedAt = a.fallback.now().UTC()
	return classification
}

func (a *Advisor) complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := a.aiCfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.aiCfg.Model,
		MaxTokens: maxTokens,
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.Log(a.aiCfg.Model, "advisory")
	return extractText(resp), nil
}

// boundReports caps prompt input to the most recent n reports to bound
// request size. Selection is by CreatedAt, independent of input order.
func boundReports(reports []model.Report, n int) []model.Report {
	if len(reports) <= n {
		return reports
	}
	recent := make([]model.Report, len(reports))
	copy(recent, reports)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	return recent[:n]
}

func buildAssessPrompt(snapshots []model.WeatherSnapshot, reports []model.Report) string {
	var b strings.Builder
	b.WriteString("Current telemetry:\n")
	if len(snapshots) == 0 {
		b.WriteString("(no telemetry available)\n")
	}
	for _, w := range snapshots {
		fmt.Fprintf(&b, "- %s: temp %.1f°C, humidity %.0f%%, rainfall %.1f mm/h, wind %.0f km/h, condition %s\n",
			w.City, w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed, w.Condition)
	}

	b.WriteString("\nCommunity reports:\n")
	if len(reports) == 0 {
		b.WriteString("(no reports)\n")
	}
	for _, r := range reports {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", r.Category, orUnset(string(r.Severity)), r.City, r.Description)
	}

	b.WriteString("\nAssess the overall suspension risk for these cities.")
	return b.String()
}

func buildClassifyPrompt(reports []model.Report) string {
	var b strings.Builder
	b.WriteString("Community reports:\n")
	if len(reports) == 0 {
		b.WriteString("(no reports)\n")
	}
	for _, r := range reports {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", r.Category, orUnset(string(r.Severity)), r.City, r.Description)
	}
	b.WriteString("\nClassify these reports into priority buckets.")
	return b.String()
}

func orUnset(s string) string {
	if s == "" {
		return "unrated"
	}
	return s
}

// aiAssessment mirrors the JSON contract. Numeric fields are pointers so a
// missing field is distinguishable from zero.
type aiAssessment struct {
	OverallRisk           string   `json:"overall_risk"`
	SuspensionRecommended bool     `json:"suspension_recommended"`
	WeatherScore          *float64 `json:"weather_score"`
	ReportsScore          *float64 `json:"reports_score"`
	CombinedScore         *float64 `json:"combined_score"`
	AffectedCities        []string `json:"affected_cities"`
	RiskFactors           []string `json:"risk_factors"`
	Advisory              string   `json:"advisory"`
	PriorityActions       []string `json:"priority_actions"`
	ExpectedConditions    string   `json:"expected_conditions"`
}

// parseAssessment extracts and validates the JSON reply. The reply may be
// fenced; missing numeric fields or scores outside [0,100] fail sanity and
// send the caller to the fallback. Accepted values are still clamped.
func parseAssessment(text string, maxFactors int) (model.RiskAssessment, error) {
	var raw aiAssessment
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return model.RiskAssessment{}, eris.Wrap(err, "engine: parse ai assessment")
	}

	for name, v := range map[string]*float64{
		"weather_score":  raw.WeatherScore,
		"reports_score":  raw.ReportsScore,
		"combined_score": raw.CombinedScore,
	} {
		if v == nil {
			return model.RiskAssessment{}, eris.Errorf("engine: ai assessment missing %s", name)
		}
		if *v < 0 || *v > 100 {
			return model.RiskAssessment{}, eris.Errorf("engine: ai assessment %s out of range: %.1f", name, *v)
		}
	}

	tier := model.RiskTier(raw.OverallRisk)
	combined := clampScore(*raw.CombinedScore)
	if !tier.Valid() {
		tier = model.TierForScore(combined)
	}

	a := model.RiskAssessment{
		OverallRisk:           tier,
		SuspensionRecommended: raw.SuspensionRecommended,
		WeatherScore:          clampScore(*raw.WeatherScore),
		ReportsScore:          clampScore(*raw.ReportsScore),
		CombinedScore:         combined,
		AffectedCities:        raw.AffectedCities,
		RiskFactors:           boundFactors(raw.RiskFactors, maxFactors),
		Advisory:              raw.Advisory,
		PriorityActions:       raw.PriorityActions,
		ExpectedConditions:    raw.ExpectedConditions,
		Source:                model.SourceAI,
	}

	// The narrative fields must never be blank; template from the tier.
	if a.Advisory == "" {
		a.Advisory = advisoryForTier(tier)
	}
	if len(a.PriorityActions) < 3 {
		a.PriorityActions = actionsForTier(tier)
	}
	if a.ExpectedConditions == "" {
		a.ExpectedConditions = conditionsForTier(tier)
	}
	return a, nil
}

type aiClassification struct {
	Priority          string   `json:"priority"`
	CriticalCount     *int     `json:"critical_count"`
	MediumCount       *int     `json:"medium_count"`
	LowCount          *int     `json:"low_count"`
	SuspensionAdvised bool     `json:"suspension_advised"`
	Threats           []string `json:"threats"`
	Summary           string   `json:"summary"`
}

func parseClassification(text string, reports []model.Report) (model.ReportClassification, error) {
	var raw aiClassification
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return model.ReportClassification{}, eris.Wrap(err, "engine: parse ai classification")
	}
	if raw.CriticalCount == nil || raw.MediumCount == nil {
		return model.ReportClassification{}, eris.New("engine: ai classification missing counts")
	}

	priority := model.RiskTier(raw.Priority)
	if !priority.Valid() {
		return model.ReportClassification{}, eris.Errorf("engine: ai classification invalid priority %q", raw.Priority)
	}

	c := model.ReportClassification{
		TotalReports:      len(reports),
		CriticalCount:     clampInt(*raw.CriticalCount, 0, len(reports)),
		MediumCount:       clampInt(*raw.MediumCount, 0, len(reports)),
		CityCounts:        make(map[string]int),
		Threats:           raw.Threats,
		Priority:          priority,
		SuspensionAdvised: raw.SuspensionAdvised,
		Summary:           raw.Summary,
		Source:            model.SourceAI,
	}
	if raw.LowCount != nil {
		c.LowCount = clampInt(*raw.LowCount, 0, len(reports))
	}
	for _, r := range reports {
		if r.City != "" {
			c.CityCounts[r.City]++
		}
	}
	if c.Summary == "" {
		c.Summary = classificationSummary(c)
	}
	return c, nil
}

func clampScore(v float64) int {
	return clampInt(int(math.Round(v)), 0, 100)
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
