// Command arenactl replays allocation workloads against a free-list arena and
// reports the resulting memory map, statistics and fragmentation.
package main

func main() {
	execute()
}
