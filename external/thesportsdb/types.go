package thesportsdb

// TheSportsDB serves every numeric field as a string, and absent collections
// as JSON null. Envelope types mirror the wire shape; mapping to the internal
// DTOs happens in client.go.

type leagueEnvelope struct {
	Leagues []leagueItem `json:"leagues"`
}

type leagueItem struct {
	ID          string `json:"idLeague"`
	Name        string `json:"strLeague"`
	Sport       string `json:"strSport"`
	Country     string `json:"strCountry"`
	Badge       string `json:"strBadge"`
	Description string `json:"strDescriptionEN"`
}

type teamsEnvelope struct {
	Teams []teamItem `json:"teams"`
}

type teamItem struct {
	ID          string `json:"idTeam"`
	Name        string `json:"strTeam"`
	Badge       string `json:"strBadge"`
	Stadium     string `json:"strStadium"`
	Capacity    string `json:"intStadiumCapacity"`
	Formed      string `json:"intFormedYear"`
	League      string `json:"strLeague"`
	Website     string `json:"strWebsite"`
	Description string `json:"strDescriptionEN"`
}

type playersEnvelope struct {
	Players []playerItem `json:"player"`
}

type playerItem struct {
	ID          string `json:"idPlayer"`
	TeamID      string `json:"idTeam"`
	Name        string `json:"strPlayer"`
	Cutout      string `json:"strCutout"`
	Thumb       string `json:"strThumb"`
	Position    string `json:"strPosition"`
	Nationality string `json:"strNationality"`
	BirthDate   string `json:"dateBorn"`
	Height      string `json:"strHeight"`
	Weight      string `json:"strWeight"`
	Number      string `json:"strNumber"`
	Description string `json:"strDescriptionEN"`
}

type tableEnvelope struct {
	Table []tableItem `json:"table"`
}

type tableItem struct {
	TeamID       string `json:"idTeam"`
	TeamName     string `json:"strTeam"`
	TeamBadge    string `json:"strBadge"`
	Rank         string `json:"intRank"`
	Played       string `json:"intPlayed"`
	Win          string `json:"intWin"`
	Draw         string `json:"intDraw"`
	Loss         string `json:"intLoss"`
	GoalsFor     string `json:"intGoalsFor"`
	GoalsAgainst string `json:"intGoalsAgainst"`
	Points       string `json:"intPoints"`
}

type scheduleEnvelope struct {
	Schedule []eventItem `json:"schedule"`
}

type livescoreEnvelope struct {
	Livescore []eventItem `json:"livescore"`
}

type eventItem struct {
	ID            string `json:"idEvent"`
	LeagueID      string `json:"idLeague"`
	HomeTeamID    string `json:"idHomeTeam"`
	AwayTeamID    string `json:"idAwayTeam"`
	HomeTeamName  string `json:"strHomeTeam"`
	AwayTeamName  string `json:"strAwayTeam"`
	HomeTeamBadge string `json:"strHomeTeamBadge"`
	AwayTeamBadge string `json:"strAwayTeamBadge"`
	Venue         string `json:"strVenue"`
	Status        string `json:"strStatus"`
	Round         string `json:"intRound"`
	HomeScore     string `json:"intHomeScore"`
	AwayScore     string `json:"intAwayScore"`
	Timestamp     string `json:"strTimestamp"`
	Date          string `json:"dateEvent"`
	Time          string `json:"strTime"`
}
