package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type holdStore interface {
	FindByID(ctx context.Context, orgID, id string) (*models.LegalHold, error)
	ListActive(ctx context.Context, orgID string) ([]models.LegalHold, error)
	List(ctx context.Context, orgID string, filter models.LegalHoldFilter) ([]models.LegalHold, int, error)
	Create(ctx context.Context, hold *models.LegalHold) error
	Release(ctx context.Context, orgID, id, releasedBy string, releasedAt time.Time) (int64, error)
}

type holdDocumentReader interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Document, error)
}

type holdEmployeeReader interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Employee, error)
}

// holdMatcher decides whether a (document, employee) pair falls under a
// hold's scope. Getting this wrong either blocks legitimate deletions
// forever or permits an unlawful one, so the predicate errs conservative:
// a hold that cannot be evaluated against the available data does not
// match, and a malformed scope never aborts evaluation of other holds.
type holdMatcher struct {
	logger *zap.Logger
}

// matches evaluates a single hold's scope against the pair. The employee
// may be nil when the document has no resolvable owner; employee and
// department scopes then cannot be proven to apply and do not match.
func (m holdMatcher) matches(document *models.Document, employee *models.Employee, hold models.LegalHold) bool {
	switch hold.ScopeType {
	case models.ScopeEmployee:
		return employee != nil && employee.ID == hold.ScopeValue
	case models.ScopeDepartment:
		return employee != nil && employee.Department == hold.ScopeValue
	case models.ScopeDocumentCategory:
		return string(document.Category) == hold.ScopeValue
	case models.ScopeDateRange:
		start, end, err := parseDateRangeScope(hold.ScopeValue)
		if err != nil {
			m.logger.Warn("unparsable date_range hold scope, treating as non-matching",
				zap.String("hold_id", hold.ID),
				zap.String("scope_value", hold.ScopeValue),
				zap.Error(err))
			return false
		}
		created := document.CreatedAt.UTC()
		return !created.Before(start) && !created.After(end)
	default:
		m.logger.Warn("unknown hold scope type, treating as non-matching",
			zap.String("hold_id", hold.ID),
			zap.String("scope_type", string(hold.ScopeType)))
		return false
	}
}

// matching returns every active hold in the slice whose scope matches the
// pair. Released holds are skipped entirely.
func (m holdMatcher) matching(holds []models.LegalHold, document *models.Document, employee *models.Employee) []models.LegalHold {
	var matched []models.LegalHold
	for _, hold := range holds {
		if hold.Status != models.HoldActive {
			continue
		}
		if m.matches(document, employee, hold) {
			matched = append(matched, hold)
		}
	}
	return matched
}

// parseDateRangeScope parses a "<ISO start>:<ISO end>" scope value. Both
// ends are inclusive.
func parseDateRangeScope(value string) (time.Time, time.Time, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("date_range scope must be \"start:end\", got %q", value)
	}
	start, err := models.ParseFlexTime(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := models.ParseFlexTime(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("date_range scope end %s precedes start %s", parts[1], parts[0])
	}
	return start, end, nil
}

// LegalHoldService manages the hold registry: lifecycle plus the scope
// matching used by the retention engine.
type LegalHoldService struct {
	holds     holdStore
	documents holdDocumentReader
	employees holdEmployeeReader
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	matcher   holdMatcher
}

// NewLegalHoldService constructs the service.
func NewLegalHoldService(holds holdStore, documents holdDocumentReader, employees holdEmployeeReader, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *LegalHoldService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LegalHoldService{
		holds:     holds,
		documents: documents,
		employees: employees,
		audit:     audit,
		validator: validate,
		logger:    logger,
		matcher:   holdMatcher{logger: logger},
	}
	svc.validator.RegisterValidation("hold_scope", func(fl validator.FieldLevel) bool {
		return models.ValidLegalHoldScopeType(fl.Field().String())
	})
	return svc
}

// CreateLegalHoldRequest describes the create payload.
type CreateLegalHoldRequest struct {
	Name       string  `json:"name" validate:"required,min=3,max=200"`
	ScopeType  string  `json:"scope_type" validate:"required,hold_scope"`
	ScopeValue string  `json:"scope_value" validate:"required"`
	Reason     *string `json:"reason" validate:"omitempty,max=1000"`
	OrgID      string  `json:"-"`
	ActorID    string  `json:"-"`
}

// Create places a new active hold and records it in the audit trail.
func (s *LegalHoldService) Create(ctx context.Context, req CreateLegalHoldRequest) (*models.LegalHold, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid legal hold payload")
	}
	hold := &models.LegalHold{
		OrgID:      req.OrgID,
		Name:       req.Name,
		ScopeType:  models.LegalHoldScopeType(req.ScopeType),
		ScopeValue: req.ScopeValue,
		Reason:     req.Reason,
		Status:     models.HoldActive,
		CreatedBy:  req.ActorID,
	}
	if err := s.holds.Create(ctx, hold); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create legal hold")
	}

	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "legal_hold",
		EntityID:   hold.ID,
		Action:     models.AuditLegalHoldCreated,
		ActorID:    req.ActorID,
		Metadata: models.JSONMap{
			"name":        hold.Name,
			"scope_type":  string(hold.ScopeType),
			"scope_value": hold.ScopeValue,
		},
	})
	return hold, nil
}

// ReleaseResult confirms a hold release.
type ReleaseResult struct {
	LegalHoldID string    `json:"legal_hold_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ReleasedBy  string    `json:"released_by"`
	ReleasedAt  time.Time `json:"released_at"`
	Message     string    `json:"message"`
}

// Release transitions a hold from active to released. The transition is
// one-way; releasing an already-released hold is a conflict.
func (s *LegalHoldService) Release(ctx context.Context, orgID, holdID, actorID string, reason *string) (*ReleaseResult, error) {
	hold, err := s.holds.FindByID(ctx, orgID, holdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("legal_hold", holdID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load legal hold")
	}
	if hold.Status != models.HoldActive {
		return nil, appErrors.Conflict(fmt.Sprintf("legal hold %q is already released", hold.Name),
			appErrors.Detail{HoldID: hold.ID, HoldName: hold.Name, Message: "hold is not active"})
	}

	releasedAt := time.Now().UTC()
	affected, err := s.holds.Release(ctx, orgID, holdID, actorID, releasedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release legal hold")
	}
	if affected == 0 {
		// Lost a race with a concurrent release.
		return nil, appErrors.Conflict(fmt.Sprintf("legal hold %q is already released", hold.Name),
			appErrors.Detail{HoldID: hold.ID, HoldName: hold.Name, Message: "hold is not active"})
	}

	metadata := models.JSONMap{"name": hold.Name}
	if reason != nil {
		metadata["reason"] = *reason
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      orgID,
		EntityType: "legal_hold",
		EntityID:   hold.ID,
		Action:     models.AuditLegalHoldReleased,
		ActorID:    actorID,
		Metadata:   metadata,
	})

	return &ReleaseResult{
		LegalHoldID: hold.ID,
		Name:        hold.Name,
		Status:      string(models.HoldReleased),
		ReleasedBy:  actorID,
		ReleasedAt:  releasedAt,
		Message:     "legal hold released; retention policies resume for affected documents",
	}, nil
}

// List returns holds with pagination.
func (s *LegalHoldService) List(ctx context.Context, orgID string, filter models.LegalHoldFilter) ([]models.LegalHold, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	holds, total, err := s.holds.List(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list legal holds")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return holds, pagination, nil
}

// MatchingHolds returns the active holds whose scope matches the pair.
// This is the registry predicate the retention engine gates on: the full
// set is returned, not a boolean, so callers can report which holds block.
func (s *LegalHoldService) MatchingHolds(ctx context.Context, orgID string, document *models.Document, employee *models.Employee) ([]models.LegalHold, error) {
	holds, err := s.holds.ListActive(ctx, orgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active legal holds")
	}
	return s.matcher.matching(holds, document, employee), nil
}

// DocumentStatus reports whether a document can currently be deleted and
// which active holds protect it.
func (s *LegalHoldService) DocumentStatus(ctx context.Context, orgID, documentID string) (*models.DocumentHoldStatus, error) {
	document, err := s.documents.FindByID(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("document", documentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	employee := s.resolveEmployee(ctx, orgID, document.EmployeeID)
	matched, err := s.MatchingHolds(ctx, orgID, document, employee)
	if err != nil {
		return nil, err
	}

	return &models.DocumentHoldStatus{
		DocumentID:     documentID,
		UnderLegalHold: len(matched) > 0,
		ActiveHolds:    matched,
		CanBeDeleted:   len(matched) == 0,
	}, nil
}

// resolveEmployee loads the document's employee when one is referenced.
// A dangling reference is logged and treated as absent: employee and
// department holds then cannot match (see matcher), while category and
// date-range holds still apply.
func (s *LegalHoldService) resolveEmployee(ctx context.Context, orgID, employeeID string) *models.Employee {
	if employeeID == "" {
		return nil
	}
	employee, err := s.employees.FindByID(ctx, orgID, employeeID)
	if err != nil {
		s.logger.Warn("document references unresolvable employee",
			zap.String("employee_id", employeeID),
			zap.Error(err))
		return nil
	}
	return employee
}
