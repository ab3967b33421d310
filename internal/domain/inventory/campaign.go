package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CampaignStatus represents the status of a physical inventory count
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusValidated CampaignStatus = "VALIDATED"
	CampaignStatusSuspended CampaignStatus = "SUSPENDED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// IsValid checks if the status is a valid CampaignStatus
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusValidated, CampaignStatusSuspended, CampaignStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition can leave the status
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusValidated || s == CampaignStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	switch s {
	case CampaignStatusDraft:
		return target == CampaignStatusValidated || target == CampaignStatusSuspended || target == CampaignStatusCancelled
	case CampaignStatusSuspended:
		return target == CampaignStatusDraft
	case CampaignStatusValidated, CampaignStatusCancelled:
		return false
	}
	return false
}

// CampaignItem is one product's line within a campaign
type CampaignItem struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	StockItemID uuid.UUID
	SKU         string
	Name        string
	SystemQty   int
	CountedQty  int
	// Skipped is set when validation could not reconcile the line because
	// its stock item was removed while the campaign was suspended
	Skipped     bool
	UpdatedAt   time.Time
}

// Delta returns counted - system
func (i *CampaignItem) Delta() int {
	return i.CountedQty - i.SystemQty
}

// HasDifference reports whether the count disagrees with the snapshot
func (i *CampaignItem) HasDifference() bool {
	return i.CountedQty != i.SystemQty
}

// Campaign is a physical stock count. While a campaign is DRAFT every stock
// mutation of its tenant is refused.
type Campaign struct {
	shared.TenantAggregateRoot
	Name        string
	Status      CampaignStatus
	ValidatedAt *time.Time
	Items       []CampaignItem
}

// NewCampaign creates a DRAFT campaign with one line per active stock item,
// snapshotting the current level as both system and counted quantity.
func NewCampaign(tenantID uuid.UUID, name string, snapshot []StockItem) (*Campaign, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Le nom de la campagne est obligatoire")
	}

	c := &Campaign{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Status:              CampaignStatusDraft,
		Items:               make([]CampaignItem, 0, len(snapshot)),
	}
	for i := range snapshot {
		s := &snapshot[i]
		if !s.IsActive() || s.TenantID != tenantID {
			continue
		}
		c.Items = append(c.Items, CampaignItem{
			ID:          uuid.New(),
			CampaignID:  c.ID,
			StockItemID: s.ID,
			SKU:         s.SKU,
			Name:        s.Name,
			SystemQty:   s.CurrentLevel,
			CountedQty:  s.CurrentLevel,
			UpdatedAt:   c.CreatedAt,
		})
	}

	c.AddDomainEvent(NewCampaignCreatedEvent(c))
	return c, nil
}

// IsDraft reports whether the campaign currently holds the stock lock
func (c *Campaign) IsDraft() bool {
	return c.Status == CampaignStatusDraft
}

// Item returns the line with the given id
func (c *Campaign) Item(itemID uuid.UUID) (*CampaignItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// UpdateCount records the counted quantity of a line. Only DRAFT campaigns
// accept counts.
func (c *Campaign) UpdateCount(itemID uuid.UUID, countedQty int) (*CampaignItem, error) {
	if !c.IsDraft() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot record counts on a %s campaign", c.Status))
	}
	if countedQty < 0 {
		return nil, shared.NewValidationError("Counted quantity cannot be negative")
	}
	item, err := c.Item(itemID)
	if err != nil {
		return nil, err
	}
	item.CountedQty = countedQty
	item.UpdatedAt = time.Now()
	c.Touch()
	return item, nil
}

// Discrepancies returns the lines whose counted quantity differs from the snapshot
func (c *Campaign) Discrepancies() []CampaignItem {
	var out []CampaignItem
	for _, item := range c.Items {
		if item.HasDifference() {
			out = append(out, item)
		}
	}
	return out
}

// SkipLine flags the line of a stock item that could not be reconciled
func (c *Campaign) SkipLine(stockItemID uuid.UUID) (*CampaignItem, error) {
	for i := range c.Items {
		if c.Items[i].StockItemID == stockItemID {
			c.Items[i].Skipped = true
			return &c.Items[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// SkippedItems returns the lines flagged by SkipLine
func (c *Campaign) SkippedItems() []CampaignItem {
	var out []CampaignItem
	for _, item := range c.Items {
		if item.Skipped {
			out = append(out, item)
		}
	}
	return out
}

// Validate closes the campaign. Stock reconciliation is carried out by the
// caller in the same transaction.
func (c *Campaign) Validate(synced bool) error {
	if err := c.transition(CampaignStatusValidated); err != nil {
		return err
	}
	now := time.Now()
	c.ValidatedAt = &now
	c.AddDomainEvent(NewCampaignValidatedEvent(c, synced))
	return nil
}

// Suspend pauses a DRAFT campaign and releases the stock lock
func (c *Campaign) Suspend() error {
	if err := c.transition(CampaignStatusSuspended); err != nil {
		return err
	}
	c.AddDomainEvent(NewCampaignStatusChangedEvent(c, EventTypeCampaignSuspended))
	return nil
}

// Cancel abandons a DRAFT campaign
func (c *Campaign) Cancel() error {
	if err := c.transition(CampaignStatusCancelled); err != nil {
		return err
	}
	c.AddDomainEvent(NewCampaignStatusChangedEvent(c, EventTypeCampaignCancelled))
	return nil
}

// Resume puts a SUSPENDED campaign back to DRAFT
func (c *Campaign) Resume() error {
	if err := c.transition(CampaignStatusDraft); err != nil {
		return err
	}
	c.AddDomainEvent(NewCampaignStatusChangedEvent(c, EventTypeCampaignResumed))
	return nil
}

func (c *Campaign) transition(target CampaignStatus) error {
	if !c.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot transition from %s to %s", c.Status, target))
	}
	c.Status = target
	c.IncrementVersion()
	return nil
}

// ShortReference is the movement reference used for reconciliation entries
func (c *Campaign) ShortReference() string {
	return c.ID.String()[:8]
}

// ReconciliationReason is the movement reason for a reconciled line
func (c *Campaign) ReconciliationReason(delta int) string {
	return fmt.Sprintf("Régularisation Inventaire : %s (%+d)", c.Name, delta)
}
