package portal

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentProfileCalls bounds the fan out in Accounts.
const maxConcurrentProfileCalls = 8

// Accounts lists the app instances and the profiles of each one.
// Profiles are fetched concurrently, the result keeps the portal's order,
// and any failure fails the whole call.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	instances, err := c.AppInstances(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProfileCalls)
	for i, instance := range instances {
		g.Go(func() error {
			profiles, err := c.Profiles(gctx, instance.ID)
			if err != nil {
				return err
			}
			accounts[i] = Account{Instance: instance, Profiles: profiles}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accounts, nil
}
