package extract

// LinkedIn markup used by the exporter.
// These break whenever LinkedIn ships a new layout; check the connections
// page and a profile's /detail/contact-info/ overlay in DevTools to update.

const (
	// Anchor of each card on the connections list.
	SelectorConnectionLink = `.mn-connection-card__link`

	// Profile top card.
	SelectorName     = `.pv-top-card-section__name`
	SelectorHeadline = `.pv-top-card-section__headline`
	SelectorLocation = `.pv-top-card-section__location`

	// Contact-info overlay sections and the value elements inside them.
	SelectorWebsites    = `.ci-websites`
	SelectorPhone       = `.ci-phone`
	SelectorAddress     = `.ci-address`
	SelectorEmail       = `.ci-email`
	SelectorTwitter     = `.ci-twitter`
	SelectorContactLink = `.pv-contact-info__contact-link`
	SelectorContainer   = `.pv-contact-info__ci-container`
)

var (
	websiteChain = []string{SelectorWebsites, SelectorContactLink}
	phoneChain   = []string{SelectorPhone, SelectorContainer, "span"}
	addressChain = []string{SelectorAddress, SelectorContactLink}
	emailChain   = []string{SelectorEmail, SelectorContactLink}
	twitterChain = []string{SelectorTwitter, SelectorContactLink}
)
