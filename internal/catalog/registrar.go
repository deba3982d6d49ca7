package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caseflow-app/caseflow/internal/platform/httpx"
)

// Registrar synchronizes the code-derived route list into the catalog and
// bulk-generates permission rows. All of its operations are idempotent and
// run inside a single transaction per call.
type Registrar struct {
	repo   Repository
	logger *slog.Logger
}

// NewRegistrar builds a Registrar.
func NewRegistrar(repo Repository, logger *slog.Logger) *Registrar {
	return &Registrar{repo: repo, logger: logger}
}

// SyncPages upserts each input page, matching existing rows by page key or
// route path. Inputs missing a required field are skipped with a reason and
// do not abort the batch; any store error rolls the whole batch back.
func (g *Registrar) SyncPages(ctx context.Context, inputs []PageInput) (SyncReport, error) {
	if len(inputs) == 0 {
		return SyncReport{}, fmt.Errorf("%w: no pages supplied", httpx.ErrValidation)
	}

	var report SyncReport
	err := g.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, input := range inputs {
			input.PageKey = strings.TrimSpace(input.PageKey)
			input.PageName = strings.TrimSpace(input.PageName)
			input.RoutePath = strings.TrimSpace(input.RoutePath)

			if reason := missingPageField(input); reason != "" {
				report.Skipped++
				report.Items = append(report.Items, SyncItem{
					PageKey:   input.PageKey,
					RoutePath: input.RoutePath,
					Result:    SyncSkipped,
					Reason:    reason,
				})
				g.logger.Warn("sync pages: skipped input",
					slog.String("page_key", input.PageKey),
					slog.String("reason", reason))
				continue
			}

			existing, found, err := tx.FindPageByKeyOrRoute(ctx, input.PageKey, input.RoutePath)
			if err != nil {
				return fmt.Errorf("catalog: find page %q: %w", input.PageKey, err)
			}
			if found {
				if err := tx.UpdatePage(ctx, existing.ID, input); err != nil {
					return fmt.Errorf("catalog: update page %q: %w", input.PageKey, err)
				}
				report.Updated++
				report.Items = append(report.Items, SyncItem{PageKey: input.PageKey, RoutePath: input.RoutePath, Result: SyncUpdated})
				continue
			}

			if _, err := tx.InsertPage(ctx, input); err != nil {
				return fmt.Errorf("catalog: insert page %q: %w", input.PageKey, err)
			}
			report.Inserted++
			report.Items = append(report.Items, SyncItem{PageKey: input.PageKey, RoutePath: input.RoutePath, Result: SyncInserted})
		}
		return nil
	})
	if err != nil {
		return SyncReport{}, err
	}

	g.logger.Info("sync pages finished",
		slog.Int("inserted", report.Inserted),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

// GeneratePermissions creates a permission row for every (active page,
// action) pair whose perm key does not exist yet. Existing keys are reported
// as skipped, never duplicated.
func (g *Registrar) GeneratePermissions(ctx context.Context, actionKeys []string) (GenerateReport, error) {
	actions := normalizeActionKeys(actionKeys)
	if len(actions) == 0 {
		return GenerateReport{}, fmt.Errorf("%w: action keys required", httpx.ErrValidation)
	}

	var report GenerateReport
	err := g.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pages, err := tx.ListActivePages(ctx)
		if err != nil {
			return fmt.Errorf("catalog: list active pages: %w", err)
		}
		existing, err := tx.ExistingPermKeys(ctx)
		if err != nil {
			return fmt.Errorf("catalog: list perm keys: %w", err)
		}

		for _, page := range pages {
			for _, action := range actions {
				key := PermKey(page.PageKey, action)
				if _, ok := existing[key]; ok {
					report.Skipped++
					report.Items = append(report.Items, GenerateItem{PermKey: key, Result: GenerateSkipped, Reason: "already exists"})
					continue
				}
				inserted, err := tx.InsertPermission(ctx, page.ID, action, key)
				if err != nil {
					return fmt.Errorf("catalog: insert permission %q: %w", key, err)
				}
				if !inserted {
					// Lost the race to a concurrent generator.
					report.Skipped++
					report.Items = append(report.Items, GenerateItem{PermKey: key, Result: GenerateSkipped, Reason: "already exists"})
					continue
				}
				report.Generated++
				report.Items = append(report.Items, GenerateItem{PermKey: key, Result: GenerateCreated})
			}
		}
		return nil
	})
	if err != nil {
		return GenerateReport{}, err
	}

	g.logger.Info("generate permissions finished",
		slog.Int("generated", report.Generated),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

func missingPageField(input PageInput) string {
	switch {
	case input.PageKey == "":
		return "page_key is required"
	case input.PageName == "":
		return "page_name is required"
	case input.RoutePath == "":
		return "route_path is required"
	}
	return ""
}

func normalizeActionKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(strings.ToLower(key))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	return normalized
}
