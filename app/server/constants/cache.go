package constants

import "time"

const (
	CacheKeyMembersMinimal = "blog:members:minimal"
	CacheKeyPortfolioList  = "blog:portfolio:list"
)

const (
	CacheExpireMembersMinimal = 1 * time.Hour
	CacheExpirePortfolioList  = 1 * time.Hour
)
