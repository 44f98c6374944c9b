package features

// Raw trip columns.
const (
	ColTripID           = "trip_id"
	ColPickup           = "pickup_zone"
	ColDropoff          = "dropoff_zone"
	ColRequestTime      = "request_datetime"
	ColDuration         = "actual_duration_minutes"
	ColDistance         = "dubai_distance"
	ColHour             = "hour"
	ColDayOfWeek        = "day_of_week"
	ColWeekend          = "is_weekend"
	ColRushHour         = "is_rush_hour"
	ColFridayPrayer     = "is_friday_prayer"
	ColEvent            = "has_event"
	ColDriverEfficiency = "driver_efficiency"
)

// Engineered columns.
const (
	ColHourSin              = "hour_sin"
	ColHourCos              = "hour_cos"
	ColDowSin               = "dow_sin"
	ColDowCos               = "dow_cos"
	ColPairMean             = "zone_pair_mean"
	ColPairStd              = "zone_pair_std"
	ColPairCount            = "zone_pair_count"
	ColHourMean             = "hour_mean"
	ColDowMean              = "dow_mean"
	ColComboMean            = "zone_combo_mean"
	ColDistanceRush         = "distance_rush"
	ColDistanceWeekend      = "distance_weekend"
	ColDistanceSquared      = "distance_squared"
	ColDistanceFridayPrayer = "distance_friday_prayer"
	ColSameZoneType         = "same_zone_type"
	ColMorning              = "is_morning"
	ColAfternoon            = "is_afternoon"
	ColEvening              = "is_evening"
	ColNight                = "is_night"
)

// One-hot prefixes; a level column is prefix + "_" + level.
const (
	PrefixPickupType  = "zone_type_pickup"
	PrefixDropoffType = "zone_type_dropoff"
	PrefixWeather     = "weather"
)

// baseColumns precede the one-hot block in every frame.
var baseColumns = []Column{
	{ColPickup, Numeric},
	{ColDropoff, Numeric},
	{ColRequestTime, Meta},
	{ColDuration, Meta},
	{ColDistance, Numeric},
	{ColHour, Numeric},
	{ColDayOfWeek, Numeric},
	{ColWeekend, Flag},
	{ColRushHour, Flag},
	{ColFridayPrayer, Flag},
	{ColEvent, Meta},
	{ColDriverEfficiency, Meta},
	{ColHourSin, Numeric},
	{ColHourCos, Numeric},
	{ColDowSin, Numeric},
	{ColDowCos, Numeric},
	{ColPairMean, Numeric},
	{ColPairStd, Numeric},
	{ColPairCount, Numeric},
	{ColHourMean, Numeric},
	{ColDowMean, Numeric},
	{ColComboMean, Numeric},
	{ColDistanceRush, Numeric},
	{ColDistanceWeekend, Numeric},
	{ColDistanceSquared, Numeric},
	{ColDistanceFridayPrayer, Numeric},
	{ColSameZoneType, Flag},
	{ColMorning, Flag},
	{ColAfternoon, Flag},
	{ColEvening, Flag},
	{ColNight, Flag},
}

// OneHot returns the column name of a categorical level.
func OneHot(prefix, level string) string { return prefix + "_" + level }
