package persona

import "github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"

// Built-in template names.
const (
	TemplateSNSCafe         = "SNS-sensitive female-dominant cafe"
	TemplateChickenDelivery = "Franchise chicken delivery"
	TemplateOfficeLunch     = "Office lunch rush diner"
	TemplateNeighborhood    = "Neighborhood regulars bakery"
	TemplateDeliveryKitchen = "Delivery-first Chinese kitchen"
	TemplateCommuter        = "Commuter grab-and-go"
	TemplateMarketVeteran   = "Traditional market veteran"
	TemplateDestination     = "Trendy dining destination"
	TemplateDecliningLocal  = "Declining neighborhood eatery"
	DefaultPersonaName      = "General neighborhood store"
)

// BuiltinTemplates returns the built-in persona templates in registry order.
func BuiltinTemplates() []domain.PersonaTemplate {
	return []domain.PersonaTemplate{
		{
			Name:        TemplateSNSCafe,
			Description: "Walk-in cafe in a busy district whose customers are mostly women in their 20s and 30s who find places through social media.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:         {string(domain.IndustryCafe), string(domain.IndustryDessert)},
				domain.DimCustomerType:     {string(domain.CustomerFloating)},
				domain.DimCommercialZone:   {string(domain.ZoneCentral)},
				domain.DimNewCustomerTrend: {string(domain.TrendDecreasing), string(domain.TrendStable)},
				domain.DimDeliveryRatio:    {string(domain.DeliveryLow), string(domain.DeliveryMedium)},
			},
			RiskCodes:     []string{"R1", "R2", "R10"},
			MarketingTone: "Trendy, visual, emotionally warm",
			KeyChannels:   []string{"Instagram", "Naver Place", "Kakao Channel"},
			Strategies: []string{
				"Run a photo-worthy seasonal menu with a hashtag event",
				"Offer a stamp card that rewards a second visit within two weeks",
				"Partner with local micro-influencers for visit reviews",
			},
		},
		{
			Name:        TemplateChickenDelivery,
			Description: "Franchise chicken outlet in a residential area that earns most of its sales through delivery apps.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryChicken)},
				domain.DimFranchise:      {"true"},
				domain.DimDeliveryRatio:  {string(domain.DeliveryHigh)},
				domain.DimCustomerType:   {string(domain.CustomerResident)},
				domain.DimCommercialZone: {string(domain.ZoneResidential)},
			},
			RiskCodes:     []string{"R5", "R6", "R9"},
			MarketingTone: "Friendly, deal-focused, fast",
			KeyChannels:   []string{"Baemin", "Coupang Eats", "Yogiyo", "Apartment community boards"},
			Strategies: []string{
				"Bundle set menus for family evening orders",
				"Reduce cancellations with accurate prep-time settings",
				"Push review events for repeat orders",
			},
		},
		{
			Name:        TemplateOfficeLunch,
			Description: "Sit-down restaurant in an office district living on weekday lunch traffic.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryKorean), string(domain.IndustryChinese), string(domain.IndustryJapanese)},
				domain.DimCustomerType:   {string(domain.CustomerWorkplace)},
				domain.DimCommercialZone: {string(domain.ZoneOffice)},
				domain.DimDeliveryRatio:  {string(domain.DeliveryLow), string(domain.DeliveryMedium)},
			},
			RiskCodes:     []string{"R3", "R4", "R10"},
			MarketingTone: "Efficient, reliable, value for money",
			KeyChannels:   []string{"Naver Place", "Kakao Map", "Company cafeteria partnerships"},
			Strategies: []string{
				"Introduce a quick-serve lunch set under ten minutes",
				"Offer prepaid lunch coupons to nearby offices",
				"Add an evening team dinner package",
			},
		},
		{
			Name:        TemplateNeighborhood,
			Description: "Bakery or dessert shop in a residential area with a loyal base of local regulars.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryDessert), string(domain.IndustryCafe)},
				domain.DimCustomerType:   {string(domain.CustomerResident)},
				domain.DimCommercialZone: {string(domain.ZoneResidential)},
				domain.DimRevisitTrend:   {string(domain.TrendStable), string(domain.TrendIncreasing)},
			},
			RiskCodes:     []string{"R1", "R7"},
			MarketingTone: "Homely, trustworthy, familiar",
			KeyChannels:   []string{"Kakao Channel", "Danggeun Market", "In-store flyers"},
			Strategies: []string{
				"Announce daily fresh-bake times to regulars",
				"Launch a membership with birthday treats",
				"Reach new residents through local community apps",
			},
		},
		{
			Name:        TemplateDeliveryKitchen,
			Description: "Chinese or fast-food kitchen serving nearby households mainly through delivery.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryChinese), string(domain.IndustryFastFood)},
				domain.DimDeliveryRatio:  {string(domain.DeliveryHigh)},
				domain.DimCustomerType:   {string(domain.CustomerResident)},
				domain.DimCommercialZone: {string(domain.ZoneResidential)},
			},
			RiskCodes:     []string{"R5", "R6"},
			MarketingTone: "Quick, generous, dependable",
			KeyChannels:   []string{"Baemin", "Coupang Eats", "Yogiyo"},
			Strategies: []string{
				"Tune delivery radius and minimum order for peak hours",
				"Add single-portion menus for one-person households",
				"Respond to every delivery review within a day",
			},
		},
		{
			Name:        TemplateCommuter,
			Description: "Takeout-oriented shop near a station serving commuters on the move.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryFastFood), string(domain.IndustryCafe)},
				domain.DimFranchise:      {"true"},
				domain.DimCustomerType:   {string(domain.CustomerFloating)},
				domain.DimCommercialZone: {string(domain.ZoneTransport)},
			},
			RiskCodes:     []string{"R2", "R4", "R10"},
			MarketingTone: "Snappy, convenient, upbeat",
			KeyChannels:   []string{"Brand app", "Kakao Map", "Station signage"},
			Strategies: []string{
				"Enable mobile pre-order for morning pickup",
				"Run commute-hour combo pricing",
				"Place visible signage along the station exit route",
			},
		},
		{
			Name:        TemplateMarketVeteran,
			Description: "Long-running independent eatery inside a traditional market.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:       {string(domain.IndustryKorean), string(domain.IndustryOther)},
				domain.DimFranchise:      {"false"},
				domain.DimCommercialZone: {string(domain.ZoneMarket)},
				domain.DimRevisitTrend:   {string(domain.TrendStable), string(domain.TrendIncreasing)},
			},
			RiskCodes:     []string{"R7", "R8", "R9"},
			MarketingTone: "Heritage, authentic, generous",
			KeyChannels:   []string{"Naver Place", "YouTube food channels", "Market association events"},
			Strategies: []string{
				"Tell the store's history on listing pages",
				"Invite food creators for market tour content",
				"Offer a younger-audience tasting menu",
			},
		},
		{
			Name:        TemplateDestination,
			Description: "Western or Japanese restaurant in a central district that diners travel to.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:         {string(domain.IndustryWestern), string(domain.IndustryJapanese)},
				domain.DimCustomerType:     {string(domain.CustomerFloating)},
				domain.DimCommercialZone:   {string(domain.ZoneCentral)},
				domain.DimNewCustomerTrend: {string(domain.TrendIncreasing), string(domain.TrendStable)},
			},
			RiskCodes:     []string{"R2", "R6", "R8"},
			MarketingTone: "Premium, curated, experiential",
			KeyChannels:   []string{"Instagram", "Catch Table", "Naver Reservation"},
			Strategies: []string{
				"Open reservation-only tasting nights",
				"Feature chef stories in visual content",
				"Create anniversary packages for couples",
			},
		},
		{
			Name:        TemplateDecliningLocal,
			Description: "Residential-area eatery losing both new and returning customers.",
			Filters: map[domain.Dimension][]string{
				domain.DimIndustry:         {string(domain.IndustryKorean), string(domain.IndustryChinese), string(domain.IndustryOther)},
				domain.DimCommercialZone:   {string(domain.ZoneResidential)},
				domain.DimNewCustomerTrend: {string(domain.TrendDecreasing)},
				domain.DimRevisitTrend:     {string(domain.TrendDecreasing)},
			},
			RiskCodes:     []string{"R1", "R2", "R3", "R9"},
			MarketingTone: "Reassuring, renewed, community-minded",
			KeyChannels:   []string{"Danggeun Market", "Kakao Channel", "Naver Place"},
			Strategies: []string{
				"Refresh the signature menu and announce it locally",
				"Win back lapsed customers with a return coupon",
				"Audit service speed and cleanliness reviews",
			},
		},
	}
}

// DefaultPersona is the fallback persona. It constrains no dimension.
func DefaultPersona() domain.PersonaTemplate {
	return domain.PersonaTemplate{
		Name:          DefaultPersonaName,
		Description:   "Generic small store profile used when no archetype fits.",
		Filters:       map[domain.Dimension][]string{},
		MarketingTone: "Friendly, clear, practical",
		KeyChannels:   []string{"Naver Place", "Kakao Channel"},
		Strategies: []string{
			"Keep listing information and photos current",
			"Collect and answer customer reviews",
			"Test one small promotion per month and track results",
		},
	}
}
