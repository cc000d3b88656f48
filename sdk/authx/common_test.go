package authx

const (
	testClientAllowInsecure = true
	testAccessToken         = "T1"
	testRefreshToken        = "R1"
)
