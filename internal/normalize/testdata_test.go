package normalize

const (
	regularFeed = `{"ss":[["Fri","7:00","Final",0,"MIN","16","BUF","20",0,0,"56115",0,"REG11","2013"],` +
		`["Fri","8:00","Final",0,"SF","15","KC","13",0,0,"56116",0,"REG11","2013"]]}`

	postseasonFeed = `{"ss":[["Sat","4:30","final overtime",0,"Baltimore Ravens","BAL","38",` +
		`"Denver Broncos","DEN","35",0,0,"55829",0,"CBS","POST22","2012"]]}`

	preseasonFeed = `{"ss":[["Thu","8:00","Final",0,"OAK","10","NO","28",0,0,"56117",0,"PRE2","2013"],` +
		`["Sat","7:30","Pregame",0,"DAL","0","ARI","0",0,0,"56118",0,"PRE2","2013"]]}`

	proBowlFeed = `{"ss":[["Sun","8:00","Final",0,"APC","13","NPC","20",0,0,"57001",0,"PRO21","2016"]]}`

	sentinelFeed = `{"ss":[["Sun","1:00","Pregame",0,"NE","0","NYJ","0",0,0,"99001",0,"PRE1234","2013"]]}`

	// Collapsed empty fields, as the live feed sends them.
	collapsedFeed = `{"ss":[["Sun","1:00","Final",,"HOU","28","SD","31",,,"1234",,"REG11","2016"]]}`
)
