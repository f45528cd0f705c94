package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
 _    ___      _ __
| |  / (_)___ _(_) /
| | / / / __ '/ / /
| |/ / / /_/ / / /
|___/_/\__, /_/_/
      /____/  v%s - Alerting Core
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}
