package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"greencart/controllers"
	"greencart/middleware"
)

// Controllers bundles everything RegisterRoutes wires up.
type Controllers struct {
	Users     *controllers.UserController
	Sellers   *controllers.SellerController
	Products  *controllers.ProductController
	Carts     *controllers.CartController
	Addresses *controllers.AddressController
	Orders    *controllers.OrderController
	Webhooks  *controllers.WebhookController
}

// RegisterRoutes sets up all the routes for the application.
func RegisterRoutes(router *mux.Router, auth *middleware.Auth, c Controllers) {
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Api is working ..."))
	}).Methods("GET")

	// The webhook verifies its own signature against the raw body; it never
	// goes through the session middlewares.
	router.HandleFunc("/stripe", c.Webhooks.HandleStripe).Methods("POST")

	user := router.PathPrefix("/api/user").Subrouter()
	user.HandleFunc("/register", c.Users.Register).Methods("POST")
	user.HandleFunc("/login", c.Users.Login).Methods("POST")
	user.HandleFunc("/verify-email-otp", c.Users.VerifyEmailOTP).Methods("POST")
	user.HandleFunc("/resend-email-otp", c.Users.ResendEmailOTP).Methods("POST")
	user.Handle("/is-auth", auth.RequireUser(http.HandlerFunc(c.Users.IsAuth))).Methods("GET")
	user.HandleFunc("/logout", c.Users.Logout).Methods("GET")

	seller := router.PathPrefix("/api/seller").Subrouter()
	seller.HandleFunc("/login", c.Sellers.Login).Methods("POST")
	seller.Handle("/is-auth", auth.RequireSeller(http.HandlerFunc(c.Sellers.IsAuth))).Methods("GET")
	seller.HandleFunc("/logout", c.Sellers.Logout).Methods("GET")

	product := router.PathPrefix("/api/product").Subrouter()
	product.Handle("/add", auth.RequireSeller(http.HandlerFunc(c.Products.Add))).Methods("POST")
	product.Handle("/stock", auth.RequireSeller(http.HandlerFunc(c.Products.ChangeStock))).Methods("POST")
	product.HandleFunc("/list", c.Products.List).Methods("GET")
	product.HandleFunc("/id", c.Products.ByID).Methods("GET")
	product.Handle("/{productId}/review",
		verified(auth, c.Products.AddReview)).Methods("POST")
	product.HandleFunc("/{productId}/reviews", c.Products.Reviews).Methods("GET")

	cart := router.PathPrefix("/api/cart").Subrouter()
	cart.Handle("/update", verified(auth, c.Carts.Update)).Methods("POST")

	address := router.PathPrefix("/api/address").Subrouter()
	address.Handle("/add", verified(auth, c.Addresses.Add)).Methods("POST")
	address.Handle("/get", verified(auth, c.Addresses.List)).Methods("GET")

	order := router.PathPrefix("/api/order").Subrouter()
	order.Handle("/cod", verified(auth, c.Orders.PlaceCOD)).Methods("POST")
	order.Handle("/stripe", verified(auth, c.Orders.PlaceOnline)).Methods("POST")
	order.Handle("/user", verified(auth, c.Orders.UserOrders)).Methods("GET")
	order.Handle("/seller", auth.RequireSeller(http.HandlerFunc(c.Orders.SellerOrders))).Methods("GET")
}

// verified chains buyer authentication with the email-verified gate.
func verified(auth *middleware.Auth, h http.HandlerFunc) http.Handler {
	return auth.RequireUser(auth.RequireVerified(h))
}
