// Package common provides Azure credential and subscription resolution shared
// by every collector. It reads credentials through the standard Azure
// identity chain (environment, workload identity, managed identity, CLI).
package common

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
)

// SubscriptionInfo identifies one resolved Azure subscription.
type SubscriptionInfo struct {
	// ID is the subscription GUID.
	ID string

	// Name is the subscription display name.
	Name string

	// TenantID is the owning AAD tenant, when the API reports it.
	TenantID string
}

// ClientProvider resolves credentials and subscriptions for collectors.
// Inject a fake in tests to avoid touching the Azure API.
type ClientProvider interface {
	// Credential returns the token credential used by all ARM clients.
	Credential() azcore.TokenCredential

	// ResolveSubscription resolves one subscription. An empty id resolves
	// $AZURE_SUBSCRIPTION_ID, falling back to the sole visible subscription
	// when exactly one exists.
	ResolveSubscription(ctx context.Context, id string) (SubscriptionInfo, error)

	// ListSubscriptions returns every subscription the credential can see.
	ListSubscriptions(ctx context.Context) ([]SubscriptionInfo, error)
}

// DefaultClientProvider is the production implementation of ClientProvider.
type DefaultClientProvider struct {
	cred azcore.TokenCredential
	subs *armsubscriptions.Client
}

// NewDefaultClientProvider builds a provider backed by the default Azure
// credential chain.
func NewDefaultClientProvider() (*DefaultClientProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("build Azure credential: %w", err)
	}
	subs, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build subscriptions client: %w", err)
	}
	return &DefaultClientProvider{cred: cred, subs: subs}, nil
}

// Credential implements ClientProvider.
func (p *DefaultClientProvider) Credential() azcore.TokenCredential { return p.cred }

// ResolveSubscription implements ClientProvider.
func (p *DefaultClientProvider) ResolveSubscription(ctx context.Context, id string) (SubscriptionInfo, error) {
	if id == "" {
		id = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	if id == "" {
		all, err := p.ListSubscriptions(ctx)
		if err != nil {
			return SubscriptionInfo{}, err
		}
		if len(all) != 1 {
			return SubscriptionInfo{}, fmt.Errorf("no subscription specified and %d are visible; pass --subscription", len(all))
		}
		return all[0], nil
	}

	resp, err := p.subs.Get(ctx, id, nil)
	if err != nil {
		return SubscriptionInfo{}, fmt.Errorf("get subscription %q: %w", id, err)
	}
	return toSubscriptionInfo(resp.Subscription), nil
}

// ListSubscriptions implements ClientProvider.
func (p *DefaultClientProvider) ListSubscriptions(ctx context.Context) ([]SubscriptionInfo, error) {
	var out []SubscriptionInfo
	pager := p.subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions page: %w", err)
		}
		for _, s := range page.Value {
			if s == nil {
				continue
			}
			out = append(out, toSubscriptionInfo(*s))
		}
	}
	return out, nil
}

func toSubscriptionInfo(s armsubscriptions.Subscription) SubscriptionInfo {
	info := SubscriptionInfo{}
	if s.SubscriptionID != nil {
		info.ID = *s.SubscriptionID
	}
	if s.DisplayName != nil {
		info.Name = *s.DisplayName
	}
	if s.TenantID != nil {
		info.TenantID = *s.TenantID
	}
	return info
}
