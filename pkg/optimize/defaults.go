package optimize

// DefaultPlants is the declared plant order. ArgMin ties resolve to the
// earliest plant in this list.
func DefaultPlants() []string {
	return []string{"Channo", "Pune", "Kolkata", "UP"}
}

// DefaultComponents returns the cost components of a consumption cost.
func DefaultComponents() []Component {
	return []Component{
		{Name: "Buying Rate", Fragment: "Buying Rate"},
		{Name: "Plant Loss", Fragment: "Plant Loss"},
		{Name: "Cold Store Loss", Fragment: "Cold Store Loss"},
		{Name: "Leno Bag and Others", Fragment: "Leno Bag"},
		{Name: "Transportation", Fragment: "Transportation cost ", PerPlant: true},
	}
}

// DefaultBusinessUnitColumn holds the BU reported in a Result.
const DefaultBusinessUnitColumn = "BU"
