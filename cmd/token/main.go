// Command token prints a signed bearer token for local use against the API,
// for example with the seeded users 1 (admin) and 2 (user).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"todoguard/pkg/auth"
)

func main() {
	userID := flag.Int("user", 1, "user id placed in the token")
	role := flag.String("role", auth.RoleAdmin, "role placed in the token: admin or user")
	ttl := flag.Duration("ttl", 3*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	if *role != auth.RoleAdmin && *role != auth.RoleUser {
		log.Fatalf("unknown role %q", *role)
	}

	token, err := auth.NewJWT(secret, *ttl).CreateToken(*userID, *role)
	if err != nil {
		log.Fatal("Failed to sign token: ", err)
	}

	fmt.Println(token)
}
