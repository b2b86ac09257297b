package platforms

import "github.com/eshaffer321/orderrecon/internal/domain/record"

// Builtin returns the profiles shipped with the service.
func Builtin() []Profile {
	return []Profile{
		{
			Name:          "petpooja",
			DisplayName:   "Pet Pooja",
			Side:          record.OriginPOS,
			IDColumns:     []string{"Invoice No.", "Invoice No", "Bill No"},
			DateColumns:   []string{"Date", "Invoice Date"},
			AmountColumns: []string{"Grand Total", "Total", "Net Amount"},
			TimeColumns:   []string{"Time", "Created"},
		},
		{
			Name:          "ristas",
			DisplayName:   "Ristas",
			Side:          record.OriginPOS,
			IDColumns:     []string{"Bill No", "Bill Number"},
			DateColumns:   []string{"Bill Date", "Date"},
			AmountColumns: []string{"Net Amount", "Bill Amount", "Total"},
			TimeColumns:   []string{"Bill Time", "Time"},
		},
		{
			Name:          "swiggy",
			DisplayName:   "Swiggy Dineout",
			Side:          record.OriginSource,
			IDColumns:     []string{"Order ID", "Booking ID"},
			DateColumns:   []string{"Order Date", "Date"},
			AmountColumns: []string{"Bill Amount", "Total Bill"},
			TimeColumns:   []string{"Order Time", "Time"},
		},
		{
			Name:          "zomatopay",
			DisplayName:   "Zomato Pay",
			Side:          record.OriginSource,
			IDColumns:     []string{"Order ID", "Transaction ID"},
			DateColumns:   []string{"Transaction Date", "Date"},
			AmountColumns: []string{"Bill Amount", "Amount"},
			TimeColumns:   []string{"Transaction Time", "Time"},
		},
		{
			Name:          "eazydiner",
			DisplayName:   "Eazy Diner",
			Side:          record.OriginSource,
			IDColumns:     []string{"Booking ID", "Transaction ID"},
			DateColumns:   []string{"Booking Date", "Date"},
			AmountColumns: []string{"Bill Amount", "Amount Paid"},
			TimeColumns:   []string{"Booking Time", "Time"},
		},
	}
}
