package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greencart/models"
)

// visibleOrders filters out online orders that were never paid: buyers and
// sellers only see COD orders and settled online orders.
func visibleOrders() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"paymentType": models.PaymentTypeCOD},
		bson.M{"isPaid": true},
	}}
}

// CreateOrder inserts a new order and returns its id.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt
	if order.Status == "" {
		order.Status = models.DefaultOrderStatus
	}
	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// MarkOrderPaid flips an order's paid flag. Marking an already paid or
// missing order is a no-op, so redelivered provider events stay safe.
func (s *Store) MarkOrderPaid(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isPaid": true, "updatedAt": now()},
	})
	return err
}

// DeleteOrder removes an order. Deleting an order that no longer exists is a
// no-op for the same redelivery reason.
func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// OrdersByUser returns the user's visible orders, newest first, with product
// and address references resolved.
func (s *Store) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	filter := visibleOrders()
	filter["userId"] = userID
	return s.findOrders(ctx, filter)
}

// AllOrders returns every visible order, newest first, for the seller view.
func (s *Store) AllOrders(ctx context.Context) ([]models.OrderView, error) {
	return s.findOrders(ctx, visibleOrders())
}

func (s *Store) findOrders(ctx context.Context, filter bson.M) ([]models.OrderView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return s.populateOrders(ctx, orders)
}

// populateOrders resolves product and address references in bulk. Dangling
// references resolve to zero values; orders are never blocked on them.
func (s *Store) populateOrders(ctx context.Context, orders []models.Order) ([]models.OrderView, error) {
	productIDs := make([]primitive.ObjectID, 0)
	addressIDs := make([]primitive.ObjectID, 0)
	seenProduct := map[primitive.ObjectID]bool{}
	seenAddress := map[primitive.ObjectID]bool{}
	for _, order := range orders {
		for _, item := range order.Items {
			if !seenProduct[item.Product] {
				seenProduct[item.Product] = true
				productIDs = append(productIDs, item.Product)
			}
		}
		if !seenAddress[order.Address] {
			seenAddress[order.Address] = true
			addressIDs = append(addressIDs, order.Address)
		}
	}

	products := map[primitive.ObjectID]models.Product{}
	if len(productIDs) > 0 {
		opts := options.Find().SetProjection(bson.M{"reviews": 0})
		cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}}, opts)
		if err != nil {
			return nil, err
		}
		var docs []models.Product
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for _, p := range docs {
			products[p.ID] = p
		}
	}

	addresses := map[primitive.ObjectID]models.Address{}
	if len(addressIDs) > 0 {
		cursor, err := s.addresses.Find(ctx, bson.M{"_id": bson.M{"$in": addressIDs}})
		if err != nil {
			return nil, err
		}
		var docs []models.Address
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		for _, a := range docs {
			addresses[a.ID] = a
		}
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		view := models.OrderView{
			ID:          order.ID,
			UserID:      order.UserID,
			Amount:      order.Amount,
			Address:     addresses[order.Address],
			Status:      order.Status,
			PaymentType: order.PaymentType,
			IsPaid:      order.IsPaid,
			CreatedAt:   order.CreatedAt,
		}
		for _, item := range order.Items {
			view.Items = append(view.Items, models.OrderItemView{
				Product:  products[item.Product],
				Quantity: item.Quantity,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// DeleteStaleOnlineOrders purges unpaid online orders created before the
// cutoff. These are orders whose checkout session was abandoned or whose
// provider session could not be created.
func (s *Store) DeleteStaleOnlineOrders(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.orders.DeleteMany(ctx, bson.M{
		"paymentType": models.PaymentTypeOnline,
		"isPaid":      false,
		"createdAt":   bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
