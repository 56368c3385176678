// Package catalog serves the admin-managed standards that populate the
// project editor's pickers.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"atelier/portal/internal/backend"
	"github.com/patrickmn/go-cache"
)

var (
	ErrValueRequired   = errors.New("value is required")
	ErrUnknownCategory = errors.New("unknown standards category")
)

type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var Categories = []Category{
	{Value: backend.CategoryApplicationType, Label: "Application Types"},
	{Value: backend.CategoryResidentialType, Label: "Residential Types"},
	{Value: backend.CategoryFlatType, Label: "Flat Types"},
}

func knownCategory(value string) bool {
	for _, c := range Categories {
		if c.Value == value {
			return true
		}
	}
	return false
}

type Upstream interface {
	ActiveStandards(ctx context.Context) (backend.StandardGroups, error)
	AllStandards(ctx context.Context) ([]backend.Standard, error)
	CreateStandard(ctx context.Context, in backend.StandardInput) error
	UpdateStandard(ctx context.Context, id backend.ID, patch backend.StandardPatch) error
	DeleteStandard(ctx context.Context, id backend.ID) error
}

const choicesKey = "choices"

type Catalog struct {
	upstream Upstream
	cache    *cache.Cache
	logger   *slog.Logger
}

func New(upstream Upstream, ttl time.Duration, logger *slog.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{
		upstream: upstream,
		cache:    cache.New(ttl, 2*ttl),
		logger:   logger.With("component", "catalog"),
	}
}

// Choices returns the active picker lists. Lists are never nil.
func (c *Catalog) Choices(ctx context.Context) (backend.StandardGroups, error) {
	if cached, ok := c.cache.Get(choicesKey); ok {
		return cached.(backend.StandardGroups), nil
	}
	groups, err := c.upstream.ActiveStandards(ctx)
	if err != nil {
		return backend.StandardGroups{}, err
	}
	groups = normalize(groups)
	c.cache.SetDefault(choicesKey, groups)
	return groups, nil
}

func normalize(groups backend.StandardGroups) backend.StandardGroups {
	if groups.ApplicationTypes == nil {
		groups.ApplicationTypes = []string{}
	}
	if groups.ResidentialTypes == nil {
		groups.ResidentialTypes = []string{}
	}
	if groups.FlatTypes == nil {
		groups.FlatTypes = []string{}
	}
	return groups
}

// All returns every entry, inactive ones included. It is never cached.
func (c *Catalog) All(ctx context.Context) ([]backend.Standard, error) {
	all, err := c.upstream.AllStandards(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []backend.Standard{}
	}
	return all, nil
}

// ByCategory filters entries to one category, keeping upstream order.
func ByCategory(all []backend.Standard, category string) []backend.Standard {
	out := []backend.Standard{}
	for _, s := range all {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Create, Update, SetActive and Delete each issue one upstream write, drop
// the cached choices and return the re-fetched full list.

func (c *Catalog) Create(ctx context.Context, in backend.StandardInput) ([]backend.Standard, error) {
	in.Value = strings.TrimSpace(in.Value)
	in.Description = strings.TrimSpace(in.Description)
	if in.Value == "" {
		return nil, ErrValueRequired
	}
	if !knownCategory(in.Category) {
		return nil, ErrUnknownCategory
	}
	if err := c.upstream.CreateStandard(ctx, in); err != nil {
		return nil, err
	}
	return c.afterWrite(ctx, "create", in.Category)
}

// Update changes the value and, when description is non-nil, the
// description. A nil description leaves the stored one untouched.
func (c *Catalog) Update(ctx context.Context, id backend.ID, value string, description *string) ([]backend.Standard, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrValueRequired
	}
	patch := backend.StandardPatch{Value: &value}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		patch.Description = &trimmed
	}
	if err := c.upstream.UpdateStandard(ctx, id, patch); err != nil {
		return nil, err
	}
	return c.afterWrite(ctx, "update", id.String())
}

func (c *Catalog) SetActive(ctx context.Context, id backend.ID, active bool) ([]backend.Standard, error) {
	if err := c.upstream.UpdateStandard(ctx, id, backend.StandardPatch{IsActive: &active}); err != nil {
		return nil, err
	}
	return c.afterWrite(ctx, "set_active", id.String())
}

func (c *Catalog) Delete(ctx context.Context, id backend.ID) ([]backend.Standard, error) {
	if err := c.upstream.DeleteStandard(ctx, id); err != nil {
		return nil, err
	}
	return c.afterWrite(ctx, "delete", id.String())
}

func (c *Catalog) afterWrite(ctx context.Context, op, subject string) ([]backend.Standard, error) {
	c.cache.Flush()
	c.logger.Info("standards changed", "op", op, "subject", subject)
	return c.All(ctx)
}

// Invalidate drops cached choices so the next editor open re-fetches them.
func (c *Catalog) Invalidate() {
	c.cache.Flush()
}
