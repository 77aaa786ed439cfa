package domain

// Industry is the closed set of store categories.
type Industry string

const (
	IndustryCafe     Industry = "CAFE"
	IndustryChinese  Industry = "CHINESE"
	IndustryChicken  Industry = "CHICKEN"
	IndustryKorean   Industry = "KOREAN"
	IndustryDessert  Industry = "DESSERT"
	IndustryFastFood Industry = "FASTFOOD"
	IndustryJapanese Industry = "JAPANESE"
	IndustryWestern  Industry = "WESTERN"
	IndustryOther    Industry = "OTHER"
)

// Industries lists every category in declaration order.
var Industries = []Industry{
	IndustryCafe, IndustryChinese, IndustryChicken, IndustryKorean,
	IndustryDessert, IndustryFastFood, IndustryJapanese, IndustryWestern, IndustryOther,
}

// Valid reports whether i is a known industry.
func (i Industry) Valid() bool {
	for _, known := range Industries {
		if i == known {
			return true
		}
	}
	return false
}

// CommercialZone is the type of trade area the store sits in.
type CommercialZone string

const (
	ZoneCentral     CommercialZone = "CENTRAL"
	ZoneResidential CommercialZone = "RESIDENTIAL"
	ZoneOffice      CommercialZone = "OFFICE"
	ZoneTransport   CommercialZone = "TRANSPORT"
	ZoneMarket      CommercialZone = "MARKET"
)

// Valid reports whether z is a known commercial zone.
func (z CommercialZone) Valid() bool {
	switch z {
	case ZoneCentral, ZoneResidential, ZoneOffice, ZoneTransport, ZoneMarket:
		return true
	}
	return false
}

// StoreAge buckets the time a store has been operating.
type StoreAge string

const (
	StoreNew    StoreAge = "NEW"
	StoreStable StoreAge = "STABLE"
	StoreOld    StoreAge = "OLD"
)

// CustomerType is the dominant origin of a store's customers.
type CustomerType string

const (
	CustomerResident  CustomerType = "RESIDENT"
	CustomerWorkplace CustomerType = "WORKPLACE"
	CustomerFloating  CustomerType = "FLOATING"
)

// DeliveryBucket buckets the delivery share of sales.
type DeliveryBucket string

const (
	DeliveryLow    DeliveryBucket = "low"
	DeliveryMedium DeliveryBucket = "medium"
	DeliveryHigh   DeliveryBucket = "high"
)

// Customer gender and age values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	Mixed        = "mixed"
)

// PersonaComponents is the attribute vector persona templates are matched against.
type PersonaComponents struct {
	Industry           Industry       `json:"industry"`
	CommercialZone     CommercialZone `json:"commercialZone"`
	IsFranchise        bool           `json:"isFranchise"`
	StoreAge           StoreAge       `json:"storeAge"`
	MainCustomerGender string         `json:"mainCustomerGender"`
	MainCustomerAge    string         `json:"mainCustomerAge"`
	CustomerType       CustomerType   `json:"customerType"`
	NewCustomerTrend   Trend          `json:"newCustomerTrend"`
	RevisitTrend       Trend          `json:"revisitTrend"`
	DeliveryRatio      DeliveryBucket `json:"deliveryRatio"`

	Defaulted []string `json:"defaulted,omitempty"`
}

// DefaultComponents returns the components used when extraction fails.
func DefaultComponents() PersonaComponents {
	return PersonaComponents{
		Industry:           IndustryOther,
		CommercialZone:     ZoneResidential,
		StoreAge:           StoreStable,
		MainCustomerGender: Mixed,
		MainCustomerAge:    Mixed,
		CustomerType:       CustomerFloating,
		NewCustomerTrend:   TrendStable,
		RevisitTrend:       TrendStable,
		DeliveryRatio:      DeliveryLow,
		Defaulted:          []string{"all"},
	}
}

// Dimension names a persona component that templates can constrain.
type Dimension string

const (
	DimIndustry         Dimension = "industry"
	DimFranchise        Dimension = "franchise"
	DimCustomerType     Dimension = "customer_type"
	DimDeliveryRatio    Dimension = "delivery_ratio"
	DimNewCustomerTrend Dimension = "new_customer_trend"
	DimRevisitTrend     Dimension = "revisit_trend"
	DimCommercialZone   Dimension = "commercial_zone"
)

// Dimensions lists the scored dimensions in scoring order.
var Dimensions = []Dimension{
	DimIndustry, DimFranchise, DimCustomerType, DimDeliveryRatio,
	DimNewCustomerTrend, DimRevisitTrend, DimCommercialZone,
}

// Value returns the component value for dimension d as a string.
func (c PersonaComponents) Value(d Dimension) string {
	switch d {
	case DimIndustry:
		return string(c.Industry)
	case DimFranchise:
		if c.IsFranchise {
			return "true"
		}
		return "false"
	case DimCustomerType:
		return string(c.CustomerType)
	case DimDeliveryRatio:
		return string(c.DeliveryRatio)
	case DimNewCustomerTrend:
		return string(c.NewCustomerTrend)
	case DimRevisitTrend:
		return string(c.RevisitTrend)
	case DimCommercialZone:
		return string(c.CommercialZone)
	}
	return ""
}

// PersonaTemplate is a predefined customer archetype.
// A dimension absent from Filters is unconstrained for this template.
type PersonaTemplate struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Filters       map[Dimension][]string `json:"filters"`
	RiskCodes     []string               `json:"riskCodes,omitempty"`
	MarketingTone string                 `json:"marketingTone,omitempty"`
	KeyChannels   []string               `json:"keyChannels,omitempty"`
	Strategies    []string               `json:"strategies,omitempty"`
}

// DimensionContribution shows how one dimension scored for the matched template.
type DimensionContribution struct {
	Dimension Dimension `json:"dimension"`
	Weight    int       `json:"weight"`
	Matched   bool      `json:"matched"`
}

// PersonaMatch is the result of matching components against the template library.
type PersonaMatch struct {
	TemplateName  string                  `json:"templateName"`
	Score         float64                 `json:"score"`
	Fallback      bool                    `json:"fallback"`
	Generated     bool                    `json:"generated,omitempty"`
	Template      PersonaTemplate         `json:"template"`
	Components    PersonaComponents       `json:"components"`
	Contributions []DimensionContribution `json:"contributions,omitempty"`
}
