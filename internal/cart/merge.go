package cart

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/sirupsen/logrus"
)

// MergeReport counts the outcome of one Merge run.
type MergeReport struct {
	Updated  int
	Inserted int
	Saved    int
	Failed   int
}

// Merge folds a guest cart into the persisted cart of userID. Lines are
// matched by ref: a match gets the guest quantity added, anything else is
// inserted. Every write is attempted on its own and a failure is only logged.
//
// If the persisted lines cannot be listed no line writes are made, since
// inserting blind would collide with lines that already exist.
func Merge(ctx context.Context, repo repository.CartRepository, userID string,
	lines []domain.CartLine, saved []domain.SavedItem, log logrus.FieldLogger) MergeReport {
	var report MergeReport
	l := logger.FromContext(ctx, log).WithField("user_id", userID)

	if len(lines) > 0 {
		remote, err := repo.ListLines(ctx, userID)
		if err != nil {
			l.WithError(err).Error("merge: list persisted lines failed, guest lines dropped")
			report.Failed += len(lines)
		} else {
			byRef := make(map[domain.LineRef]domain.CartLine, len(remote))
			for _, r := range remote {
				byRef[r.Ref] = r
			}

			for _, line := range lines {
				if existing, ok := byRef[line.Ref]; ok {
					err = repo.UpdateLineQuantity(ctx, userID, existing.ID, existing.Quantity+line.Quantity)
					if err == nil {
						report.Updated++
					}
				} else {
					_, err = repo.InsertLine(ctx, userID, line)
					if err == nil {
						report.Inserted++
					}
				}
				if err != nil {
					report.Failed++
					l.WithError(err).WithField("ref", line.Ref.String()).Error("merge: line write failed")
				}
			}
		}
	}

	for _, item := range saved {
		if err := repo.InsertSaved(ctx, userID, item.ProductID); err != nil {
			report.Failed++
			l.WithError(err).WithField("product_id", item.ProductID).Error("merge: saved item write failed")
			continue
		}
		report.Saved++
	}

	l.WithFields(logrus.Fields{
		"updated":  report.Updated,
		"inserted": report.Inserted,
		"saved":    report.Saved,
		"failed":   report.Failed,
	}).Info("guest cart merged")
	return report
}
