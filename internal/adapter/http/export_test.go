package http

import "time"

func (s *Server) WriteTimeout() time.Duration { return s.httpServer.WriteTimeout }
