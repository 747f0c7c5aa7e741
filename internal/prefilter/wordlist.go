package prefilter

// defaultWords is the built-in profanity vocabulary, a deliberately
// small high-precision subset of the usual censor lists. Deployments
// that need broader coverage (slurs in particular) extend it through
// prefilter.extra_words in the configuration rather than editing this
// file.
var defaultWords = []string{
	"arse",
	"arsehole",
	"ass",
	"asses",
	"asshole",
	"assholes",
	"bastard",
	"bastards",
	"bitch",
	"bitches",
	"bollocks",
	"bullshit",
	"cock",
	"crap",
	"cunt",
	"cunts",
	"damn",
	"dick",
	"dickhead",
	"dumbass",
	"fck",
	"fuck",
	"fucked",
	"fucker",
	"fuckers",
	"fucking",
	"goddamn",
	"hell",
	"hoe",
	"jackass",
	"jerk",
	"moron",
	"motherfucker",
	"motherfuckers",
	"piss",
	"pissed",
	"prick",
	"pussy",
	"scum",
	"shit",
	"shite",
	"shitty",
	"slut",
	"sluts",
	"twat",
	"wanker",
	"whore",
	"whores",
}
