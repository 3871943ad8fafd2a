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

type retentionEmployeeReader interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Employee, error)
}

type retentionDocumentStore interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Document, error)
	ScheduleDeletion(ctx context.Context, orgID, id string, deletionAt time.Time, seenUpdatedAt *time.Time) (int64, error)
}

type retentionPolicyStore interface {
	Find(ctx context.Context, orgID, stateCode string, category models.DocumentCategory) (*models.RetentionPolicy, error)
	ListByOrg(ctx context.Context, orgID string) ([]models.RetentionPolicy, error)
	Create(ctx context.Context, policy *models.RetentionPolicy) error
}

// holdRegistry is the legal hold matching boundary the retention engine
// gates on.
type holdRegistry interface {
	MatchingHolds(ctx context.Context, orgID string, document *models.Document, employee *models.Employee) ([]models.LegalHold, error)
}

type retentionMetrics interface {
	DeletionScheduled()
	HoldBlocked()
}

// RetentionService computes deletion eligibility and is the only entry
// point permitted to persist deletion_scheduled_at onto a document.
type RetentionService struct {
	employees retentionEmployeeReader
	documents retentionDocumentStore
	policies  retentionPolicyStore
	registry  holdRegistry
	audit     auditRecorder
	metrics   retentionMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRetentionService constructs the service.
func NewRetentionService(employees retentionEmployeeReader, documents retentionDocumentStore, policies retentionPolicyStore, registry holdRegistry, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RetentionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RetentionService{
		employees: employees,
		documents: documents,
		policies:  policies,
		registry:  registry,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
	svc.validator.RegisterValidation("doc_category", func(fl validator.FieldLevel) bool {
		return models.ValidDocumentCategory(fl.Field().String())
	})
	return svc
}

// SetMetrics attaches the compliance counters. Optional.
func (s *RetentionService) SetMetrics(m retentionMetrics) {
	s.metrics = m
}

// Calculate derives the candidate deletion date for a document. It is a
// pure read+compute operation: no audit event, no mutation.
//
// The retention clock starts at termination: while the employee has no
// termination date the result carries a nil deletion date. Any matching
// active hold also forces the date to nil regardless of the arithmetic;
// hold presence always wins.
func (s *RetentionService) Calculate(ctx context.Context, orgID, employeeID, documentID string) (*models.RetentionCalculation, error) {
	employee, err := s.employees.FindByID(ctx, orgID, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("employee", employeeID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	document, err := s.documents.FindByID(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("document", documentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if employee.StateOfWork == "" {
		return nil, appErrors.Validation("state_of_work", "employee has no state of work defined; required for retention calculation")
	}
	stateCode := strings.ToUpper(employee.StateOfWork)

	policy, err := s.policies.Find(ctx, orgID, stateCode, document.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No silent defaulting: a missing policy is the caller's
			// problem to fix, not ours to guess around.
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("no retention policy found for state %s, category %s", stateCode, document.Category))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retention policy")
	}

	var deletionAt *time.Time
	if employee.TerminationDate != nil {
		d := models.StartOfDay(*employee.TerminationDate).AddDate(0, 0, policy.RetentionDays)
		deletionAt = &d
	}

	matched, err := s.registry.MatchingHolds(ctx, orgID, document, employee)
	if err != nil {
		return nil, err
	}
	underHold := len(matched) > 0
	if underHold {
		deletionAt = nil
	}

	return &models.RetentionCalculation{
		DocumentID:          documentID,
		EmployeeID:          employeeID,
		StateCode:           stateCode,
		RetentionDays:       policy.RetentionDays,
		TerminationDate:     employee.TerminationDate,
		DeletionScheduledAt: deletionAt,
		UnderLegalHold:      underHold,
		LegalHoldCount:      len(matched),
	}, nil
}

// ScheduleDeletionRequest describes the scheduling payload.
type ScheduleDeletionRequest struct {
	DocumentID          string    `json:"document_id" validate:"required"`
	DeletionScheduledAt time.Time `json:"deletion_scheduled_at" validate:"required"`
	Reason              *string   `json:"reason" validate:"omitempty,max=1000"`
	OrgID               string    `json:"-"`
	ActorID             string    `json:"-"`
}

// ScheduleDeletion records a deletion intent on a document. The hold
// check is a hard gate: no caller role or reason overrides a match.
// Actual purge is an external process that must re-check holds itself
// immediately before deleting.
func (s *RetentionService) ScheduleDeletion(ctx context.Context, req ScheduleDeletionRequest) (*models.RetentionSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	document, err := s.documents.FindByID(ctx, req.OrgID, req.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("document", req.DocumentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	var employee *models.Employee
	if document.EmployeeID != "" {
		employee, err = s.employees.FindByID(ctx, req.OrgID, document.EmployeeID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
			}
			// Dangling reference: employee and department holds cannot be
			// proven to apply and will not match. Logged so the data
			// integrity problem stays visible.
			s.logger.Warn("document references unresolvable employee",
				zap.String("document_id", document.ID),
				zap.String("employee_id", document.EmployeeID))
			employee = nil
		}
	}

	matched, err := s.registry.MatchingHolds(ctx, req.OrgID, document, employee)
	if err != nil {
		return nil, err
	}
	if len(matched) > 0 {
		if s.metrics != nil {
			s.metrics.HoldBlocked()
		}
		details := make([]appErrors.Detail, len(matched))
		for i, hold := range matched {
			details[i] = appErrors.Detail{
				HoldID:   hold.ID,
				HoldName: hold.Name,
				Message:  "release legal hold before scheduling deletion",
			}
		}
		return nil, appErrors.Conflict(
			fmt.Sprintf("document is under legal hold %q and cannot be scheduled for deletion", matched[0].Name),
			details...)
	}

	affected, err := s.documents.ScheduleDeletion(ctx, req.OrgID, req.DocumentID, req.DeletionScheduledAt, document.UpdatedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule document deletion")
	}
	if affected == 0 {
		// The document changed after our hold check; a retry re-reads
		// holds fresh instead of trusting this stale evaluation.
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "document was modified concurrently; retry scheduling")
	}

	if s.metrics != nil {
		s.metrics.DeletionScheduled()
	}

	metadata := models.JSONMap{
		"deletion_scheduled_at": req.DeletionScheduledAt.UTC().Format(time.RFC3339),
		"document_category":     string(document.Category),
		"employee_id":           document.EmployeeID,
	}
	if req.Reason != nil {
		metadata["reason"] = *req.Reason
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "document",
		EntityID:   req.DocumentID,
		Action:     models.AuditRetentionSchedule,
		ActorID:    req.ActorID,
		Metadata:   metadata,
	})

	return &models.RetentionSchedule{
		DocumentID:          req.DocumentID,
		DeletionScheduledAt: req.DeletionScheduledAt,
		UnderLegalHold:      false,
		ScheduledBy:         req.ActorID,
		ScheduledAt:         time.Now().UTC(),
		Message:             "document successfully scheduled for deletion",
	}, nil
}

// CreatePolicyRequest describes the policy create payload.
type CreatePolicyRequest struct {
	StateCode        string `json:"state_code" validate:"required,len=2,alpha"`
	DocumentCategory string `json:"document_category" validate:"required,doc_category"`
	RetentionDays    int    `json:"retention_days" validate:"gte=0"`
	OrgID            string `json:"-"`
	ActorID          string `json:"-"`
}

// CreatePolicy adds a retention policy row. Policy changes affect only
// future calculations; there is no retroactive recompute.
func (s *RetentionService) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*models.RetentionPolicy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid policy payload")
	}
	policy := &models.RetentionPolicy{
		OrgID:            req.OrgID,
		StateCode:        strings.ToUpper(req.StateCode),
		DocumentCategory: models.DocumentCategory(req.DocumentCategory),
		RetentionDays:    req.RetentionDays,
		CreatedBy:        req.ActorID,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create retention policy")
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "retention_policy",
		EntityID:   policy.ID,
		Action:     models.AuditPolicyCreated,
		ActorID:    req.ActorID,
		Metadata: models.JSONMap{
			"state_code":        policy.StateCode,
			"document_category": string(policy.DocumentCategory),
			"retention_days":    policy.RetentionDays,
		},
	})
	return policy, nil
}

// GetPolicy returns the policy for the exact (state, category) key.
func (s *RetentionService) GetPolicy(ctx context.Context, orgID, stateCode, category string) (*models.RetentionPolicy, error) {
	policy, err := s.policies.Find(ctx, orgID, strings.ToUpper(stateCode), models.DocumentCategory(category))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("no retention policy found for state %s, category %s", strings.ToUpper(stateCode), category))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load retention policy")
	}
	return policy, nil
}

// ListPolicies returns every policy configured for the organization.
func (s *RetentionService) ListPolicies(ctx context.Context, orgID string) ([]models.RetentionPolicy, error) {
	policies, err := s.policies.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list retention policies")
	}
	return policies, nil
}

// defaultStatePolicies are the seed retention periods (post-termination).
var defaultStatePolicies = []struct {
	State string
	Days  int
}{
	{"FL", 1825},
	{"TX", 1460},
	{"AZ", 1460},
	{"NC", 1095},
	{"TN", 1095},
}

// SeedDefaultPolicies installs the default state retention periods for
// every document category of a new organization.
func (s *RetentionService) SeedDefaultPolicies(ctx context.Context, orgID, actorID string) ([]models.RetentionPolicy, error) {
	var created []models.RetentionPolicy
	for _, sp := range defaultStatePolicies {
		for _, category := range models.DocumentCategories {
			policy := &models.RetentionPolicy{
				OrgID:            orgID,
				StateCode:        sp.State,
				DocumentCategory: category,
				RetentionDays:    sp.Days,
				CreatedBy:        actorID,
			}
			if err := s.policies.Create(ctx, policy); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed retention policies")
			}
			created = append(created, *policy)
		}
	}
	s.logger.Info("seeded default retention policies",
		zap.String("org_id", orgID),
		zap.Int("count", len(created)))
	return created, nil
}
