package game

// Help - подсказки и управление для клиента
type Help struct {
	Objective string   `json:"objective"`
	Controls  []string `json:"controls"`
	Tips      []string `json:"tips"`
}

func Rules() Help {
	return Help{
		Objective: "Reveal every cell that does not hide a mine.",
		Controls: []string{
			"reveal: open a cell",
			"flag: mark or unmark a suspected mine",
			"restart: start over with the same board",
			"configure: choose rows, columns and mines",
		},
		Tips: []string{
			"Numbers show how many of the eight neighbours are mines.",
			"Flags are only marks: the counter is not limited by the mine count.",
			"The first reveal is always safe, and so are its neighbours.",
		},
	}
}
