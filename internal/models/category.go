package models

// ServiceCategories is the closed set of service types shared by
// worker skill declarations and service requests.
var ServiceCategories = []string{
	"Electrical",
	"Plumbing",
	"Cleaning",
	"Gardening",
	"Carpentry",
	"Appliance Repair",
	"Medical",
	"Hospitality",
	"IT Support",
	"Gas",
	"Tailoring",
	"Moving Help",
	"Groceries",
	"Other",
}

func IsValidCategory(category string) bool {
	for _, c := range ServiceCategories {
		if category == c {
			return true
		}
	}
	return false
}
