package order

import (
	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/internal/remote"
)

// ViewName identifies a list view of the console.
type ViewName string

const (
	ViewProduction ViewName = "production-orders"
	ViewSales      ViewName = "sales-orders"
)

// Production orders grow with "load more"; sales orders are browsed by page.
var viewOptions = map[ViewName]listview.Options{
	ViewProduction: {
		Resource:   remote.ProductionOrders,
		Discipline: listview.LoadMore,
		Dimensions: []listview.Dimension{listview.DimensionProduct, listview.DimensionStatus, listview.DimensionOperator},
	},
	ViewSales: {
		Resource:   remote.SalesOrders,
		Discipline: listview.PageNumbers,
		Dimensions: []listview.Dimension{listview.DimensionStatus},
	},
}

// Views lists the view names in display order.
func Views() []ViewName {
	return []ViewName{ViewProduction, ViewSales}
}
