package config

// Lambda's provided.al2 runtime ships without a zoneinfo database.
import _ "time/tzdata"
