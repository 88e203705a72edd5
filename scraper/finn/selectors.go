package finn

// Search query and selectors for the finn.no homes search.
const (
	// searchURL is the fixed query this tool tracks: a set of Oslo
	// districts, minimum 60 m², balcony, apartments, not ground floor,
	// total price ceiling. Results come back price-ascending, which is
	// the row order the table keeps.
	searchURL = "https://www.finn.no/realestate/homes/search.html" +
		"?sort=PRICE_ASC" +
		"&location=1.20061.20507&location=1.20061.20512&location=1.20061.20511" +
		"&location=1.20061.20522&location=1.20061.20510&location=1.20061.20513" +
		"&location=1.20061.20509&location=1.20061.20508&location=1.20061.20531" +
		"&area_from=60&facilities=1&property_type=3&floor_navigator=NOTFIRST" +
		"&price_collective_to=7500000&stored-id=78449579"

	// adURL is the detail-page endpoint, parameterized by finnkode.
	adURL = "https://www.finn.no/realestate/homes/ad.html?finnkode="

	// Search result cards link to the ad with this class; the anchor's
	// id attribute is the finnkode.
	searchAdLinkSelector = "a.sf-search-ad-link"

	// Every data-bearing element on an ad page carries a data-testid.
	testIDSelector = "[data-testid]"
	testIDAttr     = "data-testid"
)
