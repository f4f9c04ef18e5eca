package constants

const (
	// TileSize is the width and height of a map tile in pixels
	TileSize float64 = 64.0

	// PlayerWidth is the width of a player bounding box
	PlayerWidth float64 = 64.0
	// PlayerHeight is the height of a player bounding box
	PlayerHeight float64 = 64.0
	// PlayerSpeed is the speed at which players move
	PlayerSpeed float64 = 300.0
	// PlayerMaxHealth is the health a player spawns and respawns with
	PlayerMaxHealth int = 100

	// BulletWidth is the width of a bullet bounding box
	BulletWidth float64 = 8.0
	// BulletHeight is the height of a bullet bounding box
	BulletHeight float64 = 8.0
	// BulletSpeed is the speed at which bullets travel
	BulletSpeed float64 = 900.0
	// BulletGraceTime is how long a bullet ignores collisions after it is fired
	BulletGraceTime float64 = 0.1 // seconds
	// BulletMaxLifetime is how long a bullet lives before it is discarded
	BulletMaxLifetime float64 = 3.0 // seconds

	// MuzzleOffset is the distance from the player center to the muzzle along both axes
	MuzzleOffset float64 = 16.0
	// BulletAngleOffset converts a packet angle, which is the player sprite
	// rotation, into the bullet heading: a sprite at 0 degrees faces +90
	BulletAngleOffset float64 = 90.0
	// ShotgunSpread is the angle between shotgun pellets
	ShotgunSpread float64 = 10.0

	// DeathResendInterval is how often an unacknowledged death is reported again
	DeathResendInterval float64 = 0.5 // seconds
)
