package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/middleware"
	"greencart/models"
	"greencart/store"
)

// reviewRetries bounds the optimistic-concurrency retry loop on the review
// read-modify-write.
const reviewRetries = 3

// ProductStore is the persistence surface of the catalog and review flows.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) (primitive.ObjectID, error)
	Products(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	SetProductStock(ctx context.Context, id primitive.ObjectID, inStock bool) error
	UpdateProductReviews(ctx context.Context, id primitive.ObjectID, rev int64, reviews []models.Review, averageRating float64, numReviews int) error
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ProductController handles catalog management and review aggregation.
type ProductController struct {
	Store ProductStore
	Log   *zap.Logger
}

// NewProductController creates a new ProductController.
func NewProductController(s ProductStore, log *zap.Logger) *ProductController {
	return &ProductController{Store: s, Log: log}
}

// Add creates a catalog entry (seller only). Images are URL references; the
// upload pipeline lives outside this API.
func (pc *ProductController) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description []string `json:"description"`
		Category    string   `json:"category"`
		Price       float64  `json:"price"`
		OfferPrice  float64  `json:"offerPrice"`
		Image       []string `json:"image"`
		InStock     *bool    `json:"inStock"`
		Weight      string   `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	if req.Name == "" || req.Category == "" || req.Price <= 0 || req.OfferPrice <= 0 {
		respondFail(w, "Missing product details")
		return
	}
	if len(req.Image) == 0 {
		respondFail(w, "No images provided")
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		OfferPrice:  req.OfferPrice,
		Image:       req.Image,
		InStock:     req.InStock == nil || *req.InStock,
		Weight:      req.Weight,
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	id, err := pc.Store.CreateProduct(ctx, product)
	if err != nil {
		pc.Log.Error("create product", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error creating product")
		return
	}
	product.ID = id

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product Added Successfully",
		"product": product,
	})
}

// List returns the catalog without embedded reviews.
func (pc *ProductController) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := pc.Store.Products(ctx)
	if err != nil {
		pc.Log.Error("list products", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"products": products,
	})
}

// ByID returns a single product, reviews included.
func (pc *ProductController) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(r.URL.Query().Get("id"))
	if err != nil {
		respondFail(w, "Invalid product ID")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Store.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondFail(w, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error fetching product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

// ChangeStock flips a product's stock flag (seller only).
func (pc *ProductController) ChangeStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		InStock bool   `json:"inStock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		respondFail(w, "Invalid product ID")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := pc.Store.SetProductStock(ctx, id, req.InStock); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondFail(w, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error updating stock")
		return
	}
	respondOK(w, "Stock updated successfully")
}

// AddReview upserts the buyer's single review on a product and recomputes
// the cached aggregates in the same write.
func (pc *ProductController) AddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondFail(w, "Invalid product ID")
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if req.Rating < 1 || req.Rating > 5 || req.Comment == "" {
		respondFail(w, "Rating and comment are required.")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	for attempt := 0; attempt < reviewRetries; attempt++ {
		product, err := pc.Store.ProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondFail(w, "Product not found.")
				return
			}
			respondError(w, http.StatusInternalServerError, "Error saving review")
			return
		}

		reviews := upsertReview(product.Reviews, user.ID, req.Rating, req.Comment, time.Now().UTC())
		err = pc.Store.UpdateProductReviews(ctx, productID, product.ReviewsRev,
			reviews, averageRating(reviews), len(reviews))
		if err == nil {
			respondOK(w, "Review added/updated successfully.")
			return
		}
		if !errors.Is(err, store.ErrConflict) {
			pc.Log.Error("save review", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Error saving review")
			return
		}
		// Lost the race against another reviewer; reload and retry.
	}

	respondError(w, http.StatusInternalServerError, "Error saving review")
}

// Reviews returns a product's reviews with buyer display names resolved.
func (pc *ProductController) Reviews(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		respondFail(w, "Invalid product ID")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Store.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondFail(w, "Product not found.")
			return
		}
		respondError(w, http.StatusInternalServerError, "Error fetching reviews")
		return
	}

	names := map[primitive.ObjectID]string{}
	reviews := make([]map[string]interface{}, 0, len(product.Reviews))
	for _, review := range product.Reviews {
		name, seen := names[review.UserID]
		if !seen {
			if reviewer, err := pc.Store.UserByID(ctx, review.UserID); err == nil {
				name = reviewer.Name
			}
			names[review.UserID] = name
		}
		reviews = append(reviews, map[string]interface{}{
			"userId":    review.UserID,
			"name":      name,
			"rating":    review.Rating,
			"comment":   review.Comment,
			"createdAt": review.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reviews": reviews,
	})
}

// upsertReview replaces the user's existing review in place, or appends a new
// one. Identity is exact equality on the buyer reference.
func upsertReview(reviews []models.Review, userID primitive.ObjectID, rating int, comment string, now time.Time) []models.Review {
	out := make([]models.Review, len(reviews))
	copy(out, reviews)
	for i := range out {
		if out[i].UserID == userID {
			out[i].Rating = rating
			out[i].Comment = comment
			out[i].CreatedAt = now
			return out
		}
	}
	return append(out, models.Review{
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
	})
}

// averageRating is the arithmetic mean of all ratings rounded to one decimal
// place, 0 for an empty list.
func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return math.Round(float64(total)/float64(len(reviews))*10) / 10
}
