package cart

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RemoteStrategy persists the cart of a signed-in shopper. Reads go through
// the cache; every successful write invalidates it.
type RemoteStrategy struct {
	userID string
	repo   repository.CartRepository
	cache  cache.CartCache
	sfg    *singleflight.Group
	log    logrus.FieldLogger
}

// NewRemoteStrategy binds the strategy to userID. sfg may be shared between
// strategies so concurrent loads of one user collapse into a single read.
func NewRemoteStrategy(userID string, repo repository.CartRepository, c cache.CartCache, sfg *singleflight.Group, log logrus.FieldLogger) *RemoteStrategy {
	if sfg == nil {
		sfg = &singleflight.Group{}
	}
	return &RemoteStrategy{
		userID: userID,
		repo:   repo,
		cache:  c,
		sfg:    sfg,
		log:    log.WithField("user_id", userID),
	}
}

func (r *RemoteStrategy) Mode() Mode { return ModeRemote }

func (r *RemoteStrategy) UserID() string { return r.userID }

func (r *RemoteStrategy) Load(ctx context.Context) ([]domain.CartLine, []domain.SavedItem, error) {
	v, err, _ := r.sfg.Do(r.userID, func() (interface{}, error) {
		snap, err := r.cache.Get(ctx, r.userID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.WithError(err).Warn("cart cache get failed")
		}

		lines, err := r.repo.ListLines(ctx, r.userID)
		if err != nil {
			return nil, err
		}
		saved, err := r.repo.ListSaved(ctx, r.userID)
		if err != nil {
			return nil, err
		}

		snap = &domain.CartSnapshot{Lines: lines, Saved: saved, Subtotal: domain.Subtotal(lines)}
		// set inline: an async set could land after a later write's invalidation
		if errSet := r.cache.Set(ctx, r.userID, snap); errSet != nil {
			r.log.WithError(errSet).Warn("cart cache set failed")
		}
		return snap, nil
	})
	if err != nil {
		return nil, nil, err
	}

	snap := v.(*domain.CartSnapshot)
	return cloneLines(snap.Lines), cloneSaved(snap.Saved), nil
}

// Add writes the line server side and returns the server's lines rather than
// a local prediction.
func (r *RemoteStrategy) Add(ctx context.Context, lines []domain.CartLine, item Item, quantity int) ([]domain.CartLine, error) {
	var err error
	if i := findByRef(lines, item.Ref); i >= 0 {
		err = r.repo.UpdateLineQuantity(ctx, r.userID, lines[i].ID, lines[i].Quantity+1)
	} else {
		_, err = r.repo.InsertLine(ctx, r.userID, domain.CartLine{
			Ref:       item.Ref,
			Quantity:  quantity,
			UnitPrice: item.UnitPrice,
			Meta:      item.Meta,
			AddedAt:   time.Now(),
		})
	}
	if err != nil {
		return nil, err
	}
	r.invalidate()

	return r.repo.ListLines(ctx, r.userID)
}

func (r *RemoteStrategy) Remove(ctx context.Context, lineID string) error {
	return r.write(r.repo.DeleteLine(ctx, r.userID, lineID))
}

func (r *RemoteStrategy) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	return r.write(r.repo.UpdateLineQuantity(ctx, r.userID, lineID, quantity))
}

func (r *RemoteStrategy) Clear(ctx context.Context) error {
	return r.write(r.repo.DeleteAllLines(ctx, r.userID))
}

func (r *RemoteStrategy) Save(ctx context.Context, productID int64) error {
	return r.write(r.repo.InsertSaved(ctx, r.userID, productID))
}

func (r *RemoteStrategy) Unsave(ctx context.Context, productID int64) error {
	return r.write(r.repo.DeleteSaved(ctx, r.userID, productID))
}

func (r *RemoteStrategy) write(err error) error {
	if err != nil {
		return err
	}
	r.invalidate()
	return nil
}

func (r *RemoteStrategy) invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.cache.Delete(ctx, r.userID); err != nil {
		r.log.WithError(err).Warn("cart cache invalidate failed")
	}
}
