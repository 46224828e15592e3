// Package taskbank holds the fixed catalogue of chores the daily checklist is
// drawn from.
package taskbank

type Type string

const (
	HorizontalWetCleaning Type = "HORIZONTAL_SURFACES_WET_CLEANING"
	VerticalWetCleaning   Type = "VERTICAL_SURFACES_WET_CLEANING"
	Vacuuming             Type = "VACUUMING"
	Furniture             Type = "FURNITURE"
	Dishwashing           Type = "DISHWASHING"
	Daily                 Type = "DAILY"
	Laundry               Type = "LAUNDRY"
)

// Scales reports whether the task's duration grows with floor area.
func (t Type) Scales() bool {
	switch t {
	case HorizontalWetCleaning, VerticalWetCleaning, Vacuuming:
		return true
	}
	return false
}

type Category string

const (
	Kitchen    Category = "KITCHEN"
	Bathroom   Category = "BATHROOM"
	LivingRoom Category = "LIVING_ROOM"
	Bedroom    Category = "BEDROOM"
	Office     Category = "OFFICE"
	DiningRoom Category = "DINING_ROOM"
	Basement   Category = "BASEMENT"
	General    Category = "GENERAL"
)

// Well-known task ids.
const (
	VacuumFloors = 20
	WashLaundry  = 32
	DryLaundry   = 33
	IronLaundry  = 34
	PutAwayToys  = 35
)

type Definition struct {
	ID          int
	Type        Type
	Category    Category
	Description string
	BaseMinutes int
}

var tasks = []Definition{
	{1, HorizontalWetCleaning, Kitchen, "Протереть столы влажной тряпкой на кухне", 2},
	{2, VerticalWetCleaning, Kitchen, "Протереть вертикальные поверхности влажной тряпкой на кухне", 5},
	{3, Dishwashing, Kitchen, "Помыть грязную посуду на кухне", 10},
	{4, Furniture, Kitchen, "Почистить раковину на кухне", 4},
	{5, Furniture, Kitchen, "Почистить микроволновку и плиту на кухне", 6},
	{6, HorizontalWetCleaning, Kitchen, "Помыть пол на кухне", 6},
	{7, Furniture, Bathroom, "Вымыть ванну/душевую кабинку в ванной", 8},
	{8, Furniture, Bathroom, "Почистить раковину в ванной", 4},
	{9, VerticalWetCleaning, Bathroom, "Протереть зеркало в ванной", 2},
	{10, Furniture, Bathroom, "Почистить унитаз в ванной", 5},
	{11, HorizontalWetCleaning, Bathroom, "Помыть пол в ванной", 5},
	{12, HorizontalWetCleaning, LivingRoom, "Протереть столы влажной тряпкой в гостиной", 4},
	{13, Vacuuming, LivingRoom, "Пропылесосить диваны и кресла в гостиной", 5},
	{14, HorizontalWetCleaning, LivingRoom, "Помыть пол в гостиной", 5},
	{15, Furniture, Bedroom, "Поменять постельное белье в спальне", 5},
	{16, HorizontalWetCleaning, Bedroom, "Протереть столы влажной тряпкой в спальне", 4},
	{17, HorizontalWetCleaning, Bedroom, "Помыть пол в спальне", 6},
	{18, Furniture, Office, "Протереть рабочее место влажной тряпкой в кабинете", 4},
	{19, HorizontalWetCleaning, Office, "Помыть пол в кабинете", 6},
	{20, Vacuuming, General, "Пропылесосить полы", 6},
	{21, VerticalWetCleaning, General, "Протереть дверные ручки и выключатели", 3},
	{22, HorizontalWetCleaning, General, "Вымыть подоконники влажной тряпкой", 4},
	{23, VerticalWetCleaning, General, "Протереть зеркала и стеклянные поверхности", 3},
	{24, HorizontalWetCleaning, General, "Протереть полки и шкафы", 5},
	{25, VerticalWetCleaning, General, "Помыть окна и рамы", 8},
	{26, Furniture, General, "Протереть электронику", 3},
	{27, Daily, General, "Выбросить мусор", 3},
	{28, Daily, General, "Проветрить помещения", 2},
	{29, Daily, DiningRoom, "Протереть стол в обеденной", 4},
	{30, HorizontalWetCleaning, DiningRoom, "Помыть пол в обеденной", 6},
	{31, HorizontalWetCleaning, Basement, "Помыть пол в подвале", 8},
	{32, Laundry, General, "Постирать и развесить одежду", 12},
	{33, Laundry, General, "Снять одежду с сушки", 5},
	{34, Laundry, General, "Погладить одежду", 15},
	{35, Daily, General, "Убрать детские игрушки", 3},
}

var byID = func() map[int]Definition {
	m := make(map[int]Definition, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}()

var roomCategories = map[string]Category{
	"Кухня":     Kitchen,
	"Ванная":    Bathroom,
	"Гостиная":  LivingRoom,
	"Спальня":   Bedroom,
	"Кабинет":   Office,
	"Обеденная": DiningRoom,
	"Подвал":    Basement,
}

// All returns a copy of the catalogue in id order.
func All() []Definition {
	out := make([]Definition, len(tasks))
	copy(out, tasks)
	return out
}

// ByID looks up a task definition.
func ByID(id int) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// ByType returns every task of the given type in id order.
func ByType(t Type) []Definition {
	var out []Definition
	for _, d := range tasks {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// CategoryOf maps a standard room name to its category. Unknown names map to
// General.
func CategoryOf(roomName string) Category {
	if c, ok := roomCategories[roomName]; ok {
		return c
	}
	return General
}

// ForRoom returns the tasks a room may draw from. Custom rooms only draw from
// General tasks.
func ForRoom(roomName string, custom bool) []Definition {
	cat := General
	if !custom {
		cat = CategoryOf(roomName)
	}
	var out []Definition
	for _, d := range tasks {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Reserved reports whether the task is only ever placed by the mandatory
// inserts, never by per-room selection.
func Reserved(id int) bool {
	switch id {
	case WashLaundry, DryLaundry, IronLaundry, PutAwayToys:
		return true
	}
	return false
}
