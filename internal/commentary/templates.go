package commentary

// Template catalog for synthesized commentary. Placeholders ({batsman},
// {bowler}, {team}, {runs}, ...) are substituted at generation time; one
// phrasing is picked at random from the matching family for variety.

var runTemplates = map[int][]string{
	0: {
		"Dot ball! {bowler} keeps it tight",
		"No run there, good bowling by {bowler}",
		"Defended well by {batsman}",
		"Maiden over building up here",
	},
	1: {
		"{batsman} pushes it for a single",
		"Quick single taken by {batsman}",
		"Good running between the wickets",
		"Rotates the strike with a single",
	},
	2: {
		"Two runs! Good placement by {batsman}",
		"Couple of runs added to the total",
		"{batsman} finds the gap for two",
		"Well run two by {batsman}",
	},
	3: {
		"Three runs! Excellent running",
		"They've run hard for three",
		"{batsman} places it well for three runs",
		"Good cricket, three runs added",
	},
	4: {
		"FOUR! Beautiful shot by {batsman}!",
		"What a boundary! {batsman} finds the fence",
		"FOUR runs! Excellent timing by {batsman}",
		"Cracking shot for four by {batsman}!",
		"BOUNDARY! {batsman} pierces the field",
	},
	6: {
		"SIX! What a shot by {batsman}!",
		"MAXIMUM! {batsman} sends it into the stands!",
		"SIX runs! Massive hit by {batsman}!",
		"OUT OF THE PARK! {batsman} goes big!",
		"HUGE SIX! {batsman} clears the boundary with ease!",
	},
}

var wicketTemplates = []string{
	"WICKET! {batsman} is out! What a breakthrough!",
	"OUT! {batsman} has to go back to the pavilion",
	"GONE! {batsman} is dismissed! Great bowling!",
	"WICKET FALLS! {batsman} is out for {runs}",
	"BREAKTHROUGH! {batsman} departs after scoring {runs}",
}

var extraTemplates = map[string][]string{
	"wide": {
		"Wide ball! Extra run to the batting side",
		"That's called wide, pressure on the bowler",
		"Wide delivery, {batsman} leaves it alone",
	},
	"no-ball": {
		"No ball! Free hit coming up!",
		"That's a no-ball, extra run and free hit",
		"Overstepping! No ball called",
	},
	"bye": {
		"Bye! {batsman} misses, keeper misses too",
		"Byes taken, neither batsman nor keeper could collect",
		"Extra runs via byes",
	},
	"leg-bye": {
		"Leg bye! Ball hits the pad and they run",
		"Leg byes taken, off the pads",
		"Extra runs via leg byes",
	},
}

// Team milestone sentences keyed by threshold, checked highest first so a
// single delivery announces at most the highest boundary it crossed.
var milestoneThresholds = []int{200, 150, 100, 50}

var teamMilestones = map[int]string{
	50:  "FIFTY up for {team}! Good start to the innings",
	100: "HUNDRED up for {team}! Solid batting display",
	150: "150 up for {team}! Building a good total",
	200: "200 up for {team}! Excellent batting performance",
}

var overCompleteTemplates = []string{
	"End of over {over}. {team} are {runs}/{wickets}. Batsmen change ends - {newStriker} now on strike",
	"Over {over} completed. Current score: {runs}/{wickets}. Strike rotated, {newStriker} to face next over",
	"That's the end of over {over}. {team}: {runs}/{wickets}. {newStriker} and {newNonStriker} swap ends",
}

var inningsEndTemplates = []string{
	"That's the end of the innings! {team} finish on {runs}/{wickets}",
	"Innings complete! {team} have scored {runs} runs for the loss of {wickets} wickets",
	"All over! {team} end their innings at {runs}/{wickets}",
}
