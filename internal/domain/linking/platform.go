package linking

// PlatformCode identifies an external advertising or analytics platform.
type PlatformCode string

const (
	// PlatformMetaAds covers Meta's combined surface: ad accounts,
	// Facebook pages and Instagram business profiles.
	PlatformMetaAds PlatformCode = "meta_ads"
	// PlatformGoogleAds represents Google Ads customer accounts.
	PlatformGoogleAds PlatformCode = "google_ads"
	// PlatformGoogleAnalytics represents Google Analytics properties.
	PlatformGoogleAnalytics PlatformCode = "google_analytics"
	// PlatformYandexMetrica represents Yandex.Metrica counters.
	PlatformYandexMetrica PlatformCode = "yandex_metrica"
	// PlatformYandexDirect represents Yandex.Direct ad accounts.
	PlatformYandexDirect PlatformCode = "yandex_direct"
)

// IsValid returns true if the platform code is known.
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformMetaAds, PlatformGoogleAds, PlatformGoogleAnalytics,
		PlatformYandexMetrica, PlatformYandexDirect:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode.
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform.
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformMetaAds:
		return "Meta Ads & Instagram"
	case PlatformGoogleAds:
		return "Google Ads"
	case PlatformGoogleAnalytics:
		return "Google Analytics"
	case PlatformYandexMetrica:
		return "Yandex.Metrica"
	case PlatformYandexDirect:
		return "Yandex.Direct"
	default:
		return string(c)
	}
}

// ResourceKind names a quota-limited linked resource on a subscription plan.
type ResourceKind string

const (
	// ResourceSocialAccounts limits linked social profiles (Instagram etc.)
	ResourceSocialAccounts ResourceKind = "linked_social_accounts"
	// ResourceAdAccounts limits linked ad accounts
	ResourceAdAccounts ResourceKind = "linked_ad_accounts"
	// ResourcePages limits linked pages
	ResourcePages ResourceKind = "linked_pages"
)

// IsValid returns true if the resource kind is known.
func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceSocialAccounts, ResourceAdAccounts, ResourcePages:
		return true
	default:
		return false
	}
}
