package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vardhan998997/visual-product-matcer/controllers"
)

// RegisterRoutes mounts the API under /api and at the root.
func RegisterRoutes(
	r *gin.Engine,
	productController *controllers.ProductController,
	analysisController *controllers.AnalysisController,
	searchController *controllers.SearchController,
) {
	for _, prefix := range []string{"/api", ""} {
		group := r.Group(prefix)
		registerGroup(group, productController, analysisController, searchController)
	}
}

func registerGroup(
	group *gin.RouterGroup,
	productController *controllers.ProductController,
	analysisController *controllers.AnalysisController,
	searchController *controllers.SearchController,
) {
	group.POST("/analyze", analysisController.Analyze)
	group.POST("/fetch-image", analysisController.FetchImage)

	productRoutes := group.Group("/products")
	{
		productRoutes.GET("", productController.GetProducts)
		productRoutes.POST("", productController.CreateProduct)
		productRoutes.DELETE("", productController.DeleteProduct)
		productRoutes.DELETE("/:id", productController.DeleteProduct)
	}

	group.GET("/related-products", productController.GetRelated)
	group.POST("/search", searchController.Search)
}
