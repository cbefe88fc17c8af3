package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"clockysap/config"
	"clockysap/internal/timeutil"
	"clockysap/timeentry"
)

const maxCommentRunes = 255

var ErrMapping = errors.New("mapping error")

// NaturalKey identifies a target record independent of the source entry that
// produced it. Two records with the same key are the same record.
type NaturalKey struct {
	EmployeeID string
	Date       string
	CostCenter string
}

func (k NaturalKey) String() string {
	return k.EmployeeID + "|" + k.Date + "|" + k.CostCenter
}

// ExternalCode is the stable target-side identifier derived from the key.
func (k NaturalKey) ExternalCode() string {
	sum := sha256.Sum256([]byte(k.String()))
	return "CLK-" + hex.EncodeToString(sum[:])[:12]
}

// TargetRecord is the time record shape written to SuccessFactors.
type TargetRecord struct {
	ExternalCode  string
	EmployeeID    string
	Date          time.Time
	Hours         float64
	CostCenter    string
	TimeType      string
	Comment       string
	SourceEntryID string
}

func (r TargetRecord) Key() NaturalKey {
	return NaturalKey{
		EmployeeID: r.EmployeeID,
		Date:       r.Date.Format(timeutil.DayLayout),
		CostCenter: r.CostCenter,
	}
}

type Mapper struct {
	employeeID        string
	defaultTimeType   string
	defaultCostCenter string
	rounding          time.Duration
	rules             []config.Rule
}

func NewMapper(cfg config.MappingConfig, rules []config.Rule) (*Mapper, error) {
	employeeID := strings.TrimSpace(cfg.EmployeeID)
	if employeeID == "" {
		return nil, errors.New("mapping employee id is required")
	}
	if cfg.RoundingMinutes < 0 {
		return nil, fmt.Errorf("rounding minutes must be >= 0, got %d", cfg.RoundingMinutes)
	}
	return &Mapper{
		employeeID:        employeeID,
		defaultTimeType:   strings.TrimSpace(cfg.DefaultTimeType),
		defaultCostCenter: strings.TrimSpace(cfg.DefaultCostCenter),
		rounding:          time.Duration(cfg.RoundingMinutes) * time.Minute,
		rules:             append([]config.Rule(nil), rules...),
	}, nil
}

// Map translates one entry. The result depends only on the entry and the
// mapper configuration.
func (m *Mapper) Map(entry timeentry.Entry) (TargetRecord, error) {
	if entry.Running() {
		return TargetRecord{}, fmt.Errorf("%w: entry %s is still running", ErrMapping, entry.ID)
	}
	duration := entry.WorkedDuration()
	if duration <= 0 {
		return TargetRecord{}, fmt.Errorf("%w: entry %s has no positive duration", ErrMapping, entry.ID)
	}

	costCenter, timeType, ok := m.resolve(entry.ProjectName, entry.TaskName)
	if !ok {
		return TargetRecord{}, fmt.Errorf(
			"%w: entry %s: no cost center for project %q task %q",
			ErrMapping,
			entry.ID,
			entry.ProjectName,
			entry.TaskName,
		)
	}
	if timeType == "" {
		return TargetRecord{}, fmt.Errorf("%w: entry %s: no time type configured", ErrMapping, entry.ID)
	}

	record := TargetRecord{
		EmployeeID:    m.employeeID,
		Date:          entry.Day(),
		Hours:         m.hours(duration),
		CostCenter:    costCenter,
		TimeType:      timeType,
		Comment:       buildComment(entry),
		SourceEntryID: entry.ID,
	}
	record.ExternalCode = record.Key().ExternalCode()
	return record, nil
}

// resolve prefers a rule naming the entry's task, then the first
// project-wide rule, then the default cost center.
func (m *Mapper) resolve(project, task string) (string, string, bool) {
	project = normalizeName(project)
	task = normalizeName(task)

	var projectWide *config.Rule
	for i := range m.rules {
		rule := &m.rules[i]
		if normalizeName(rule.Project) != project || project == "" {
			continue
		}
		ruleTask := normalizeName(rule.Task)
		if ruleTask == "" {
			if projectWide == nil {
				projectWide = rule
			}
			continue
		}
		if ruleTask == task {
			return strings.TrimSpace(rule.CostCenter), m.timeTypeFor(*rule), true
		}
	}
	if projectWide != nil {
		return strings.TrimSpace(projectWide.CostCenter), m.timeTypeFor(*projectWide), true
	}
	if m.defaultCostCenter != "" {
		return m.defaultCostCenter, m.defaultTimeType, true
	}
	return "", "", false
}

func (m *Mapper) timeTypeFor(rule config.Rule) string {
	if value := strings.TrimSpace(rule.TimeType); value != "" {
		return value
	}
	return m.defaultTimeType
}

func (m *Mapper) hours(duration time.Duration) float64 {
	if m.rounding > 0 {
		steps := math.Ceil(float64(duration) / float64(m.rounding))
		duration = time.Duration(steps) * m.rounding
	}
	return roundHours(duration.Hours())
}

// Merge folds records sharing a natural key into one, summing hours and
// joining comments. Order follows the first occurrence of each key.
func Merge(records []TargetRecord) []TargetRecord {
	index := make(map[NaturalKey]int, len(records))
	out := make([]TargetRecord, 0, len(records))
	for _, record := range records {
		key := record.Key()
		position, exists := index[key]
		if !exists {
			index[key] = len(out)
			out = append(out, record)
			continue
		}
		merged := &out[position]
		merged.Hours = roundHours(merged.Hours + record.Hours)
		merged.Comment = truncateRunes(joinNonEmpty("; ", merged.Comment, record.Comment), maxCommentRunes)
		merged.SourceEntryID = joinNonEmpty(",", merged.SourceEntryID, record.SourceEntryID)
	}
	return out
}

func buildComment(entry timeentry.Entry) string {
	reference := joinNonEmpty(" / ", strings.TrimSpace(entry.ProjectName), strings.TrimSpace(entry.TaskName))
	description := strings.TrimSpace(entry.Description)
	comment := description
	if reference != "" {
		comment = joinNonEmpty(": ", reference, description)
	}
	return truncateRunes(comment, maxCommentRunes)
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, sep)
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func normalizeName(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(value)), " "))
}
