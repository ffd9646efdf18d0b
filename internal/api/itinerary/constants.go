package itinerary

// preferenceSelectors maps each preference category to the Overpass tag
// filter groups used for the broad candidate search. Keys double as the
// canonical preference vocabulary.
var preferenceSelectors = map[string][]string{
	"foodie": {
		`[amenity~"restaurant|cafe|pub|bar|food_court|ice_cream_parlor|juice_bar|tea_house|biergarten|fast_food"]`,
		`[shop~"bakery|pastry|ice_cream|sweets|confectionery|deli|chocolate|coffee|tea"]`,
	},
	"history":   {`[historic]`},
	"sights":    {`[tourism~"attraction|viewpoint|museum|artwork"]`},
	"shopping":  {`[shop]`},
	"nightlife": {`[amenity~"bar|pub|nightclub|casino"]`},
	"park": {
		`[leisure~"park|garden|nature_reserve|promenade|beach_resort"]`,
		`[natural~"beach|wood|water"]`,
		`[waterway~"waterfall|riverbank"]`,
	},
	"religious": {
		`[amenity=place_of_worship][tourism~"attraction|artwork"]`,
		`[amenity=place_of_worship][historic]`,
		`[amenity=place_of_worship][wikipedia]`,
		`[amenity=place_of_worship][heritage]`,
	},
}

// surpriseMePreferences is the default mix when the caller opts into a
// surprise without naming any preferences.
var surpriseMePreferences = []string{"sights", "history", "foodie", "park", "shopping"}

// KnownPreferences returns the sorted-ish vocabulary used in AI prompts.
func KnownPreferences() []string {
	prefs := make([]string, 0, len(preferenceSelectors))
	for p := range preferenceSelectors {
		prefs = append(prefs, p)
	}
	return prefs
}

// excludeKeyExists disqualifies any element carrying one of these keys.
var excludeKeyExists = map[string]bool{
	"noname": true, "fixme": true, "construction": true, "proposed": true,
	"disused": true, "abandoned": true, "razed": true, "noexit": true,
}

// excludedTagValues disqualifies elements whose tag value is infrastructure
// or otherwise unvisitable.
var excludedTagValues = map[string]map[string]bool{
	"shop": setOf(
		"stationery", "kiosk", "convenience", "copyshop", "newsagent", "tobacco", "greengrocer",
		"butcher", "hardware", "laundry", "dry_cleaning", "tailor", "shoe_repair", "vacant",
		"chemist", "mobile_phone", "optician", "beauty", "hairdresser", "bookmaker", "charity",
		"lottery", "travel_agency", "estate_agent", "insurance", "money_lender", "pawnbroker",
		"car", "motorcycle", "bicycle", "boat", "truck", "atv", "snowmobile", "car_repair",
		"car_parts", "tyres", "automotive", "motorcycle_repair", "bicycle_repair", "electronics",
		"appliance", "computer", "hifi", "video_games", "video", "general", "trade", "wholesale",
		"rental", "storage_rental", "tool_hire", "medical_supply", "electrical", "paint", "florist",
		"pet", "agrarian", "farm", "doityourself", "bathroom_furnishing", "erotic",
		"funeral_directors", "gas", "kitchen", "security", "tiles", "window_construction",
		"weapons", "outpost", "photo", "photo_processing", "pyrotechnics", "fabric", "sewing",
		"variety_store", "bed", "carpet", "curtain", "doors", "flooring", "furniture",
		"houseware", "lamps", "window_blind", "second_hand", "office_supplies",
		"building_materials", "diy", "repair", "service", "trophy", "awards",
		"photo_studio", "frame", "glaziery", "interior_decoration",
	),
	"amenity": setOf(
		"atm", "bank", "clinic", "dentist", "doctors", "pharmacy", "post_box", "post_office",
		"telephone", "toilets", "recycling", "waste_basket", "bench", "shelter", "taxi",
		"bus_station", "ferry_terminal", "car_rental", "fuel", "parking", "bicycle_parking",
		"motorcycle_parking", "charging_station", "police", "fire_station", "library",
		"townhall", "courthouse", "community_centre", "social_facility", "kindergarten",
		"school", "college", "university", "public_bath", "grave_yard", "place_of_mourning",
		"crematorium", "animal_shelter", "car_wash", "driving_school", "veterinary",
		"childcare", "clock", "compressed_air", "hunting_stand", "payment_terminal",
		"public_bookcase", "waste_disposal", "water_point", "fountain", "photo_booth",
	),
	"building": setOf(
		"yes", "residential", "apartments", "house", "detached", "semidetached_house",
		"industrial", "warehouse", "office", "commercial", "retail", "garage", "hut",
		"shed", "service", "construction", "ruins", "farm", "static_caravan",
		"transformer_tower", "kiosk", "cabin", "school", "hospital", "train_station",
		"transportation", "public", "government", "civic", "tower",
	),
	"tourism": setOf(
		"information", "guidepost", "map", "board", "hotel", "hostel", "motel",
		"guest_house", "alpine_hut", "camp_site", "caravan_site", "apartment", "chalet",
	),
	"leisure": setOf(
		"pitch", "playground", "track", "stadium", "sports_centre", "dog_park", "picnic_table",
		"firepit", "swimming_pool", "fitness_centre", "golf_course", "ice_rink", "water_park",
		"marina", "slipway", "adult_gaming_centre", "amusement_arcade", "bandstand", "dance",
		"fitness_station", "hackerspace", "horse_riding", "miniature_golf", "sauna",
		"sports_hall", "summer_camp", "tanning_salon",
	),
	"landuse": setOf(
		"residential", "industrial", "commercial", "retail", "construction", "farmland",
		"military", "quarry", "landfill", "cemetery", "brownfield", "greenfield",
		"railway", "basin", "meadow", "orchard", "plant_nursery", "reservoir", "village_green",
	),
	"highway": setOf(
		"bus_stop", "street_lamp", "traffic_signals", "crossing", "service", "footway",
		"cycleway", "path", "steps", "give_way", "mini_roundabout", "motorway_junction",
		"passing_place", "platform", "rest_area", "speed_camera", "stop", "turning_circle",
		"turning_loop",
	),
	"power": setOf("pole", "tower", "substation", "generator", "line", "minor_line", "cable"),
	"man_made": setOf(
		"storage_tank", "wastewater_plant", "water_works", "chimney", "crane", "surveillance",
		"mast", "pipeline", "adit", "breakwater", "bunker_silo", "clearcut", "cutline",
		"dyke", "embankment", "flagpole", "gasometer", "groyne", "lighthouse",
		"monitoring_station", "pier", "reservoir_covered", "silo", "street_cabinet",
		"survey_point", "water_tap", "water_tower", "water_well", "windmill", "works", "tower",
	),
}

// Food categorisation for duration and cost defaults.
var (
	mealAmenities    = setOf("restaurant", "cafe")
	snackAmenities   = setOf("pub", "bar", "food_court", "juice_bar", "tea_house", "biergarten", "internet_cafe")
	dessertAmenities = setOf("ice_cream_parlor", "bakery", "pastry")
	dessertShopTags  = setOf("ice_cream", "cakes", "doughnut", "sweets", "confectionery", "chocolate", "candy")
)

// internationalFoodChains are disqualified outright for foodie matches.
var internationalFoodChains = []string{
	"mcdonald's", "starbucks", "subway", "kfc", "pizza hut", "burger king",
	"domino's pizza", "taco bell", "costa coffee", "tim hortons", "dunkin'",
	"dunkin' donuts", "papa john's", "wendy's", "baskin robbins", "pizzaexpress",
	"pret a manger", "cafe coffee day", "barista", "costa", "gloria jean's coffees",
	"hard rock cafe",
}

// authenticityKeywords mark descriptions of the genuinely local.
var authenticityKeywords = []string{
	"authentic", "traditional", "original since", "famous for its", "heritage",
	"local favorite", "specialty of", "since 19", "since 18", "generations",
	"classic", "renowned", "award-winning",
}

var shoppingAuthenticityKeywords = []string{
	"handmade", "local art", "traditional craft", "artisan", "local design",
	"handicraft", "bespoke", "custom", "unique finds", "indigenous",
	"specialty shop", "made in",
}

// genericStoreTerms penalize everyday retail by exact word match in the name.
var genericStoreTerms = setOf(
	"store", "stores", "kirana", "supermarket", "traders", "enterprises",
	"sons", "emporium", "bazaar", "mart", "world", "collection", "point",
	"spencer's", "reliance", "more", "big bazaar", "dmart", "easyday", "vishal mega mart",
)

var (
	souvenirShopTypes = setOf("souvenir", "gift", "crafts", "art")
	generalShopTypes  = setOf("general", "department_store")
)

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
